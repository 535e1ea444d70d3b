package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCompanyCSV(t *testing.T) {
	path := writeCSV(t, "name,url\nAcme Anvils,https://acme-anvils.test\nGlobex,https://globex.test\n")

	companies, err := readCompanyCSV(path)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Acme Anvils", companies[0].Name)
	assert.Equal(t, "https://acme-anvils.test", companies[0].URL)
	assert.Equal(t, "Globex", companies[1].Name)
}

func TestReadCompanyCSV_SkipsBadRows(t *testing.T) {
	path := writeCSV(t, "name,url\nNoURL\n  Acme  , https://acme.test \n,\n")

	companies, err := readCompanyCSV(path)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
	assert.Equal(t, "https://acme.test", companies[0].URL)
}

func TestReadCompanyCSV_MissingFile(t *testing.T) {
	_, err := readCompanyCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
