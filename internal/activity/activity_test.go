package activity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_RecordAndBlacklist(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := Open(dir)
	require.NoError(t, err)

	log.Record("research start %s", "https://example.test")
	log.Record("research done %s", "https://example.test")
	log.Blacklist("example.test", "homepage unreachable")
	require.NoError(t, log.Close())

	activity, err := os.ReadFile(filepath.Join(dir, "activity.log"))
	require.NoError(t, err)
	assert.Contains(t, string(activity), "research start https://example.test")
	assert.Contains(t, string(activity), "research done https://example.test")

	blacklist, err := os.ReadFile(filepath.Join(dir, "blacklist.log"))
	require.NoError(t, err)
	assert.Contains(t, string(blacklist), "example.test")
	assert.Contains(t, string(blacklist), "homepage unreachable")
}

func TestLog_AppendsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	log, err := Open(dir)
	require.NoError(t, err)
	log.Record("first run")
	require.NoError(t, log.Close())

	log, err = Open(dir)
	require.NoError(t, err)
	log.Record("second run")
	require.NoError(t, log.Close())

	content, err := os.ReadFile(filepath.Join(dir, "activity.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "first run")
	assert.Contains(t, string(content), "second run")
}

func TestNop(t *testing.T) {
	var n Nop
	n.Record("ignored %d", 1)
	n.Blacklist("example.test", "ignored")
}
