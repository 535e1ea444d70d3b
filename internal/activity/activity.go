// Package activity writes the append-only observability side channel: a
// human-readable activity log and a blacklist log of domains the pipeline
// refused or failed to reach. Nothing in the pipeline reads these back.
package activity

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Log appends human-readable lines to the activity and blacklist files.
// Safe for concurrent use.
type Log struct {
	mu        sync.Mutex
	activity  *os.File
	blacklist *os.File
}

// Open creates dir if needed and opens both logs for appending.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "activity: create log dir %s", dir)
	}

	act, err := os.OpenFile(filepath.Join(dir, "activity.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrap(err, "activity: open activity log")
	}

	bl, err := os.OpenFile(filepath.Join(dir, "blacklist.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		_ = act.Close()
		return nil, eris.Wrap(err, "activity: open blacklist log")
	}

	return &Log{activity: act, blacklist: bl}, nil
}

// Record appends one timestamped line to the activity log.
func (l *Log) Record(format string, args ...any) {
	line := fmt.Sprintf("%s %s\n", time.Now().UTC().Format(time.RFC3339), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.activity.WriteString(line); err != nil {
		zap.L().Warn("activity: write failed", zap.Error(err))
	}
}

// Blacklist appends a domain and reason to the blacklist log.
func (l *Log) Blacklist(domain, reason string) {
	line := fmt.Sprintf("%s %s\t%s\n", time.Now().UTC().Format(time.RFC3339), domain, reason)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.blacklist.WriteString(line); err != nil {
		zap.L().Warn("activity: blacklist write failed", zap.Error(err))
	}
	zap.L().Info("domain blacklisted",
		zap.String("domain", domain),
		zap.String("reason", reason),
	)
}

// Close closes both log files.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	actErr := l.activity.Close()
	blErr := l.blacklist.Close()
	if actErr != nil {
		return actErr
	}
	return blErr
}

// Nop is a Recorder that discards everything. Used in tests and when the
// side channel is disabled.
type Nop struct{}

// Record implements the activity surface as a no-op.
func (Nop) Record(string, ...any) {}

// Blacklist implements the blacklist surface as a no-op.
func (Nop) Blacklist(string, string) {}
