package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-research/internal/activity"
	"github.com/sells-group/prospect-research/internal/fetcher"
	"github.com/sells-group/prospect-research/internal/policy"
	"github.com/sells-group/prospect-research/internal/render"
	"github.com/sells-group/prospect-research/internal/research"
	"github.com/sells-group/prospect-research/internal/store"
	anthropicpkg "github.com/sells-group/prospect-research/pkg/anthropic"
	"github.com/sells-group/prospect-research/pkg/ner"
)

// engineEnv holds the initialized clients and the research engine needed
// by the research/batch/serve commands.
type engineEnv struct {
	Store    store.Store
	Engine   *research.Engine
	Activity *activity.Log
	Browser  *render.Browser
}

// Close releases resources held by the environment.
func (e *engineEnv) Close() {
	if e.Browser != nil {
		_ = e.Browser.Close()
	}
	if e.Activity != nil {
		_ = e.Activity.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEngine sets up the store, activity log, fetcher, policy gate and
// external clients, and builds the Engine. Callers should defer
// env.Close().
func initEngine(ctx context.Context) (*engineEnv, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	act, err := activity.Open(cfg.Activity.Dir)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "open activity log")
	}

	fetchOpts := []fetcher.Option{
		fetcher.WithRecorder(act),
		fetcher.WithHostRate(cfg.Fetch.HostRate, cfg.Fetch.HostRateBurst),
		fetcher.WithDefaults(fetcher.Options{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			Retries: cfg.Fetch.Retries,
		}),
	}
	var browser *render.Browser
	if cfg.Render.Enabled {
		browser = render.New(time.Duration(cfg.Render.TimeoutSecs) * time.Second)
		fetchOpts = append(fetchOpts, fetcher.WithRenderer(browser))
	}
	fetch := fetcher.New(fetchOpts...)

	aiClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	nerClient := ner.NewClient(cfg.NER.Key, cfg.NER.BaseURL)

	gate := policy.NewGate(fetch, aiClient, act, policy.Config{
		FailOpen:  cfg.Policy.FailOpen,
		UserAgent: cfg.Policy.UserAgent,
		Model:     cfg.Anthropic.HaikuModel,
	})

	engine := research.NewEngine(fetch, aiClient, nerClient, gate, st, act, research.Config{
		MaxArticles:     cfg.Research.MaxArticles,
		FactConcurrency: cfg.Research.FactConcurrency,
		AIModel:         cfg.Anthropic.HaikuModel,
		CheckTerms:      cfg.Policy.CheckTOS,
		CacheTTL:        cfg.Research.CacheTTL(),
	})

	if n, err := st.DeleteExpiredResults(ctx); err == nil && n > 0 {
		zap.L().Info("expired cached results pruned", zap.Int("count", n))
	}

	return &engineEnv{Store: st, Engine: engine, Activity: act, Browser: browser}, nil
}
