package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/prospect-research/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	domain     TEXT NOT NULL,
	company    TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS result_cache (
	id         TEXT PRIMARY KEY,
	domain     TEXT NOT NULL,
	result     TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS blacklist (
	domain     TEXT PRIMARY KEY,
	reason     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_domain ON runs(domain);
CREATE INDEX IF NOT EXISTS idx_result_cache_domain ON result_cache(domain);
CREATE INDEX IF NOT EXISTS idx_result_cache_expires_at ON result_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetCachedResult returns the most recent unexpired cached result for a
// domain, or nil when nothing usable is cached.
func (s *SQLiteStore) GetCachedResult(ctx context.Context, domain string) (*model.ResearchResult, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM result_cache
		 WHERE domain = ? AND expires_at > ?
		 ORDER BY cached_at DESC LIMIT 1`,
		domain, time.Now().UTC(),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get cached result %s", domain)
	}

	var result model.ResearchResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached result")
	}
	result.FromCache = true
	return &result, nil
}

func (s *SQLiteStore) SetCachedResult(ctx context.Context, domain string, result *model.ResearchResult, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO result_cache (id, domain, result, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), domain, string(raw), now, now.Add(ttl),
	)
	return eris.Wrapf(err, "sqlite: cache result %s", domain)
}

func (s *SQLiteStore) DeleteExpiredResults(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM result_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired results")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// AddBlacklist upserts a domain with its refusal reason.
func (s *SQLiteStore) AddBlacklist(ctx context.Context, domain, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blacklist (domain, reason, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(domain) DO UPDATE SET reason = excluded.reason`,
		domain, reason, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: blacklist %s", domain)
}

func (s *SQLiteStore) IsBlacklisted(ctx context.Context, domain string) (bool, string, error) {
	var reason string
	err := s.db.QueryRowContext(ctx,
		`SELECT reason FROM blacklist WHERE domain = ?`, domain,
	).Scan(&reason)
	if err == sql.ErrNoRows {
		return false, "", nil
	}
	if err != nil {
		return false, "", eris.Wrapf(err, "sqlite: check blacklist %s", domain)
	}
	return true, reason, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, result *model.ResearchResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run result")
	}

	id := result.RunID
	if id == "" {
		id = uuid.New().String()
	}

	// The runs table keys on the bare host, same as the cache and
	// blacklist tables.
	domain := result.Company.URL
	if u, err := url.Parse(domain); err == nil && u.Host != "" {
		domain = u.Host
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, domain, company, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, domain, result.Company.Name, string(raw), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save run %s", id)
}
