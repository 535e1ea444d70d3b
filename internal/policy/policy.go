// Package policy decides whether a domain may be crawled at all: robots.txt
// rules plus an optional terms-of-service heuristic. It is the only
// component allowed to stop the pipeline before content retrieval.
package policy

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-research/internal/fetcher"
	"github.com/sells-group/prospect-research/internal/model"
	"github.com/sells-group/prospect-research/pkg/anthropic"
)

// Recorder receives blacklist events for domains the gate refuses.
type Recorder interface {
	Blacklist(domain, reason string)
}

// Config controls gate behavior.
type Config struct {
	// FailOpen treats robots fetch/parse failures as "allowed". This is
	// the historical behavior; set false to fail closed.
	FailOpen bool
	// UserAgent is the token matched against robots.txt groups.
	UserAgent string
	// Model used for the terms-of-service question.
	Model string
}

const tosExcerptLimit = 6000

// Gate answers crawl-permission questions for target URLs.
type Gate struct {
	fetch    fetcher.Client
	ai       anthropic.Client
	recorder Recorder
	cfg      Config
}

// NewGate creates a Gate. ai may be nil when the ToS heuristic is disabled.
func NewGate(fetch fetcher.Client, ai anthropic.Client, recorder Recorder, cfg Config) *Gate {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "*"
	}
	return &Gate{fetch: fetch, ai: ai, recorder: recorder, cfg: cfg}
}

// IsCrawlAllowed fetches and evaluates robots.txt for the URL's host.
// Fetch or parse trouble resolves according to FailOpen; a disallowed
// domain is recorded to the blacklist as a side effect.
func (g *Gate) IsCrawlAllowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		zap.L().Warn("policy: unparseable url", zap.String("url", rawURL), zap.Error(err))
		return g.cfg.FailOpen
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	out := g.fetch.Fetch(ctx, robotsURL, fetcher.Options{Timeout: 5 * time.Second, Retries: 1})
	if !out.OK() {
		zap.L().Info("policy: robots.txt unavailable",
			zap.String("url", robotsURL),
			zap.Bool("fail_open", g.cfg.FailOpen),
			zap.Error(out.Err),
		)
		return g.cfg.FailOpen
	}

	rules := parseRobots(out.Body)
	allowed := rules.canFetch(g.cfg.UserAgent, u.Path)
	if !allowed {
		g.recorder.Blacklist(u.Host, "disallowed by robots.txt")
	}
	return allowed
}

// IsBannedByTerms asks the completion service a yes/no question about a
// terms-of-service excerpt. Empty text or any failure defaults to "not
// banned".
func (g *Gate) IsBannedByTerms(ctx context.Context, tosText string) bool {
	if strings.TrimSpace(tosText) == "" || g.ai == nil {
		return false
	}

	tosText = model.Clip(tosText, tosExcerptLimit)

	resp, err := g.ai.Complete(ctx, anthropic.CompletionRequest{
		Model:     g.cfg.Model,
		MaxTokens: 8,
		Prompt: "Does this Terms of Service prohibit scraping or automated access?\n" +
			"Reply 'YES' or 'NO'.\n\n" + tosText,
	})
	if err != nil {
		zap.L().Warn("policy: tos check failed, assuming not banned", zap.Error(err))
		return false
	}

	return strings.Contains(strings.ToLower(resp.Text), "yes")
}

// FindTermsText locates a terms-of-service page from the homepage's anchors
// and returns its text excerpt and URL. Returns empty strings when nothing
// is found; that is not an error.
func (g *Gate) FindTermsText(ctx context.Context, homeURL string) (string, string) {
	base, err := url.Parse(homeURL)
	if err != nil {
		return "", ""
	}

	out := g.fetch.Fetch(ctx, homeURL, fetcher.Options{Timeout: 8 * time.Second, Retries: 1})
	if !out.OK() {
		return "", ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out.Body))
	if err != nil {
		return "", ""
	}

	var tosURL string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.Contains(strings.ToLower(href), "terms") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		tosURL = base.ResolveReference(ref).String()
		return false
	})
	if tosURL == "" {
		return "", ""
	}

	tosOut := g.fetch.Fetch(ctx, tosURL, fetcher.Options{Timeout: 8 * time.Second, Retries: 1})
	if !tosOut.OK() {
		return "", ""
	}

	text := tosOut.Body
	if len(text) > tosExcerptLimit {
		text = text[:tosExcerptLimit]
	}
	return text, tosURL
}

// CheckTerms combines discovery and the ban heuristic for a homepage.
func (g *Gate) CheckTerms(ctx context.Context, homeURL string) (banned bool, tosURL string) {
	text, foundURL := g.FindTermsText(ctx, homeURL)
	if text == "" {
		return false, ""
	}
	if g.IsBannedByTerms(ctx, text) {
		host := foundURL
		if u, err := url.Parse(homeURL); err == nil {
			host = u.Host
		}
		g.recorder.Blacklist(host, "terms of service prohibit scraping")
		return true, foundURL
	}
	return false, foundURL
}
