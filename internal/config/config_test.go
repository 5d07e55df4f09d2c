package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8181", cfg.Server.Addr)
	assert.Equal(t, SourceFile, cfg.Data.Source)
	assert.Equal(t, "./public", cfg.Data.Dir)
	assert.Equal(t, "data", cfg.Data.Root)
	assert.Equal(t, 10*time.Second, cfg.Data.FetchTimeout())
	assert.Equal(t, "2025-01-01", cfg.StartDate)
	assert.False(t, cfg.Frontend.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "application.yaml")
	yaml := `
server:
  addr: ":9000"
data:
  source: http
  baseurl: https://example.org
  timeout: 3
startdate: "2024-06-01"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("DAYBOOK_DATA_ROOT", "archive")

	// when
	cfg, err := Load(path)

	// then
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, SourceHTTP, cfg.Data.Source)
	assert.Equal(t, "https://example.org", cfg.Data.BaseURL)
	assert.Equal(t, "archive", cfg.Data.Root)
	assert.Equal(t, 3*time.Second, cfg.Data.FetchTimeout())
	assert.Equal(t, "2024-06-01", cfg.StartDate)
}

func TestLoad_InvalidSource(t *testing.T) {
	t.Setenv("DAYBOOK_DATA_SOURCE", "ftp")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.ErrorContains(t, err, "unknown data.source")
}

func TestLoad_HTTPRequiresBaseURL(t *testing.T) {
	t.Setenv("DAYBOOK_DATA_SOURCE", "http")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.ErrorContains(t, err, "data.baseurl")
}
