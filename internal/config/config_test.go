package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(1000), cfg.API.PageSize)
	assert.Equal(t, 100*time.Millisecond, cfg.API.RequestDelay())
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL())
	assert.Equal(t, int64(100), cfg.Cache.MaxSizeMB)
	assert.Equal(t, "data/cache.db", cfg.Cache.DatabasePath)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 2*time.Second, cfg.Aggregator.RetryBackoff())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drivescope.yaml")
	content := `
api:
  page_size: 200
cache:
  enabled: false
  ttl_hours: 6
server:
  listen: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(200), cfg.API.PageSize)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL())
	assert.Equal(t, ":9090", cfg.Server.Listen)
	// untouched keys keep their defaults
	assert.Equal(t, 100, cfg.API.RequestDelayMS)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DRIVESCOPE_CACHE_TTL_HOURS", "48")
	t.Setenv("DRIVESCOPE_LOGGING_VERBOSE", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.Cache.TTL())
	assert.True(t, cfg.Logging.Verbose)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
