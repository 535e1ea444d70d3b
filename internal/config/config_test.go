package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "research.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrentCompanies)
	assert.Equal(t, 10, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 2, cfg.Fetch.Retries)
	assert.InDelta(t, 2.0, cfg.Fetch.HostRate, 0.001)
	assert.True(t, cfg.Render.Enabled)
	assert.Equal(t, 30, cfg.Render.TimeoutSecs)
	assert.True(t, cfg.Policy.FailOpen)
	assert.False(t, cfg.Policy.CheckTOS)
	assert.Equal(t, "*", cfg.Policy.UserAgent)
	assert.Equal(t, 5, cfg.Research.MaxArticles)
	assert.Equal(t, 5, cfg.Research.FactConcurrency)
	assert.Equal(t, 24, cfg.Research.CacheTTLHours)
	assert.Equal(t, 24*time.Hour, cfg.Research.CacheTTL())
	assert.Equal(t, "logs", cfg.Activity.Dir)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.HaikuModel)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  path: /tmp/research-test.db
log:
  level: debug
  format: console
policy:
  fail_open: false
  check_tos: true
research:
  max_articles: 3
`
	cwd, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/research-test.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Policy.FailOpen)
	assert.True(t, cfg.Policy.CheckTOS)
	assert.Equal(t, 3, cfg.Research.MaxArticles)
	// Untouched sections keep their defaults.
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromEnv(t *testing.T) {
	chTempDir(t)

	t.Setenv("RESEARCH_LOG_LEVEL", "warn")
	t.Setenv("RESEARCH_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
