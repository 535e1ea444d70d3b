package research

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-research/internal/fetcher"
	"github.com/sells-group/prospect-research/internal/model"
	"github.com/sells-group/prospect-research/internal/policy"
	"github.com/sells-group/prospect-research/internal/store"
	"github.com/sells-group/prospect-research/pkg/anthropic"
	"github.com/sells-group/prospect-research/pkg/ner"
)

// PolicyBlockedError means robots rules or terms of service disallow
// crawling the domain. The pipeline does not proceed past it.
type PolicyBlockedError struct {
	Domain string
	Reason string
}

func (e *PolicyBlockedError) Error() string {
	return fmt.Sprintf("crawling %s is not permitted: %s", e.Domain, e.Reason)
}

// DomainUnreachableError means the homepage probe failed outright.
type DomainUnreachableError struct {
	Domain string
	Err    error
}

func (e *DomainUnreachableError) Error() string {
	return fmt.Sprintf("domain %s is unreachable: %v", e.Domain, e.Err)
}

func (e *DomainUnreachableError) Unwrap() error { return e.Err }

// Recorder receives activity and blacklist events from the pipeline.
type Recorder interface {
	Record(format string, args ...any)
	Blacklist(domain, reason string)
}

type nopRecorder struct{}

func (nopRecorder) Record(string, ...any) {}

func (nopRecorder) Blacklist(string, string) {}

// Config carries the pipeline knobs loaded from configuration.
type Config struct {
	MaxArticles     int
	FactConcurrency int
	AIModel         string
	CheckTerms      bool
	CacheTTL        time.Duration
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		MaxArticles:     5,
		FactConcurrency: 5,
		CacheTTL:        24 * time.Hour,
	}
}

// Engine runs the research pipeline for one company at a time. It is safe
// for concurrent use.
type Engine struct {
	fetch    fetcher.Client
	ai       anthropic.Client
	entities ner.Client
	gate     *policy.Gate
	store    store.Store
	recorder Recorder
	cfg      Config
}

// NewEngine wires the pipeline. store may be nil to disable caching and
// run records.
func NewEngine(fetch fetcher.Client, ai anthropic.Client, entities ner.Client, gate *policy.Gate, st store.Store, recorder Recorder, cfg Config) *Engine {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = DefaultConfig().MaxArticles
	}
	if cfg.FactConcurrency <= 0 {
		cfg.FactConcurrency = DefaultConfig().FactConcurrency
	}
	return &Engine{
		fetch:    fetch,
		ai:       ai,
		entities: entities,
		gate:     gate,
		store:    st,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Research runs the full pipeline for a company. Only a policy block or an
// unreachable homepage abort the run; every other step degrades to an
// empty or default value and the result is returned with partial data.
func (e *Engine) Research(ctx context.Context, domain, companyName string) (*model.ResearchResult, error) {
	start := time.Now()
	base, baseURL, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("domain", baseURL.Host), zap.String("company", companyName))

	if e.store != nil {
		if cached, err := e.store.GetCachedResult(ctx, baseURL.Host); err == nil && cached != nil {
			log.Info("returning cached result", zap.Time("cached_at", cached.CreatedAt))
			return cached, nil
		}
		if blocked, reason, err := e.store.IsBlacklisted(ctx, baseURL.Host); err == nil && blocked {
			return nil, &PolicyBlockedError{Domain: baseURL.Host, Reason: reason}
		}
	}

	e.recorder.Record("research start %s (%s)", companyName, base)

	if !e.gate.IsCrawlAllowed(ctx, base) {
		e.recorder.Record("research aborted %s: robots disallow", base)
		return nil, &PolicyBlockedError{Domain: baseURL.Host, Reason: "robots.txt disallows crawling"}
	}
	if e.cfg.CheckTerms {
		if banned, tosURL := e.gate.CheckTerms(ctx, base); banned {
			e.recorder.Record("research aborted %s: terms of service (%s)", base, tosURL)
			return nil, &PolicyBlockedError{Domain: baseURL.Host, Reason: "terms of service prohibit automated access"}
		}
	}

	probe := e.fetch.Fetch(ctx, base, fetcher.Options{Retries: 1})
	if !probe.OK() {
		e.recorder.Blacklist(baseURL.Host, "homepage unreachable")
		if e.store != nil {
			_ = e.store.AddBlacklist(ctx, baseURL.Host, "homepage unreachable")
		}
		return nil, &DomainUnreachableError{Domain: baseURL.Host, Err: probe.Err}
	}

	result := &model.ResearchResult{
		RunID:     uuid.NewString(),
		Company:   model.Company{URL: base, Name: companyName},
		CreatedAt: time.Now().UTC(),
	}

	// Discovery, locations, facts and social links are independent of one
	// another, so they run as one concurrent phase. Each absorbs its own
	// failure and leaves its field empty.
	var links []model.ScoredLink
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if links, err = DiscoverLinks(gctx, e.fetch, base); err != nil {
			log.Warn("link discovery failed", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		locs, err := ExtractLocations(gctx, e.fetch, e.entities, base)
		if err != nil {
			log.Warn("location extraction failed", zap.Error(err))
			return nil
		}
		result.Locations = locs
		return nil
	})
	g.Go(func() error {
		facts, err := ExtractCompanyFacts(gctx, e.fetch, e.ai, e.cfg.AIModel, base, e.cfg.FactConcurrency)
		if err != nil {
			log.Warn("fact extraction failed", zap.Error(err))
		}
		if len(facts) == 0 {
			facts = model.DefaultCompanyFacts()
		}
		result.Facts = facts
		return nil
	})
	g.Go(func() error {
		social, err := ExtractSocialLinks(gctx, e.fetch, base)
		if err != nil {
			log.Warn("social link extraction failed", zap.Error(err))
			return nil
		}
		result.Social = social
		return nil
	})
	_ = g.Wait()

	result.ProductsServices = result.Facts.ProductsServices()
	result.Articles = e.collectArticles(ctx, log, links)
	result.Elapsed = time.Since(start)

	if e.store != nil {
		if err := e.store.SaveRun(ctx, result); err != nil {
			log.Warn("run record failed", zap.Error(err))
		}
		if err := e.store.SetCachedResult(ctx, baseURL.Host, result, e.cfg.CacheTTL); err != nil {
			log.Warn("result cache write failed", zap.Error(err))
		}
	}

	e.recorder.Record("research done %s: %d articles, %d locations, %d social links in %s",
		base, len(result.Articles), len(result.Locations), len(result.Social), result.Elapsed.Round(time.Millisecond))
	log.Info("research complete",
		zap.Int("articles", len(result.Articles)),
		zap.Int("locations", len(result.Locations)),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

// collectArticles classifies and extracts articles from the top MaxArticles
// scored links. Links that turn out not to be articles are skipped, not
// replaced, so the fetch count stays bounded.
func (e *Engine) collectArticles(ctx context.Context, log *zap.Logger, links []model.ScoredLink) []model.Article {
	limit := e.cfg.MaxArticles
	if limit < 0 {
		limit = 0
	}
	if len(links) > limit {
		links = links[:limit]
	}

	var articles []model.Article
	for _, link := range links {
		art, err := ExtractArticle(ctx, e.fetch, link.URL)
		if err != nil {
			log.Debug("article fetch failed", zap.String("url", link.URL), zap.Error(err))
			continue
		}
		if art != nil {
			articles = append(articles, *art)
		}
	}
	return articles
}
