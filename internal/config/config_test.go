package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/downloads")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/downloads", cfg.OutputDir)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, 20*time.Second, cfg.Reddit.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 4, cfg.Grab.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Watch.Interval)
	assert.Equal(t, 720*time.Hour, cfg.History.SeenTTL)
	assert.True(t, cfg.Reddit.Anonymous())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/data/media")
	t.Setenv("REDDIT_CLIENT_ID", "cid")
	t.Setenv("REDDIT_CLIENT_SECRET", "csec")
	t.Setenv("REDDIT_USERNAME", "user")
	t.Setenv("REDDIT_PASSWORD", "pass")
	t.Setenv("REDGRAB_LOG_LEVEL", "debug")
	t.Setenv("REDGRAB_WORKERS", "2")
	t.Setenv("REDGRAB_HTTP_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/media", cfg.OutputDir)
	assert.Equal(t, LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, 2, cfg.Grab.Workers)
	assert.Equal(t, 5*time.Second, cfg.Reddit.Timeout)
	assert.False(t, cfg.Reddit.Anonymous())
}

func TestAnonymousNeedsAllCredentials(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "cid")
	t.Setenv("REDDIT_CLIENT_SECRET", "csec")
	t.Setenv("REDDIT_USERNAME", "user")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Reddit.Anonymous())
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/downloads")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, "/downloads", cfg.OutputDir)
}

func TestOutputDirFallback(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Downloads", filepath.Base(cfg.OutputDir))
}
