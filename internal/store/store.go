package store

import (
	"context"
	"time"

	"github.com/sells-group/prospect-research/internal/model"
)

// Store defines the local persistence used around the research pipeline:
// a TTL cache of completed results, the domain blacklist, and run records.
// The pipeline itself owns no persisted state; everything here is
// reconstructible.
type Store interface {
	// Result cache
	GetCachedResult(ctx context.Context, domain string) (*model.ResearchResult, error)
	SetCachedResult(ctx context.Context, domain string, result *model.ResearchResult, ttl time.Duration) error
	DeleteExpiredResults(ctx context.Context) (int, error)

	// Blacklist
	AddBlacklist(ctx context.Context, domain, reason string) error
	IsBlacklisted(ctx context.Context, domain string) (bool, string, error)

	// Run records
	SaveRun(ctx context.Context, result *model.ResearchResult) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
