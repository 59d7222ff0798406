package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("api:\n  base_url: https://api.example.com/\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.API.CacheTTL)
	assert.Equal(t, 100, cfg.API.CacheMaxEntries)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, 5, cfg.Notifications.MaxItems)
	assert.Equal(t, 10*time.Second, cfg.Connectivity.DedupWindow)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParseDurations(t *testing.T) {
	cfg, err := Parse([]byte("api:\n  timeout: 2s\nconnectivity:\n  dedup_window: 1500ms\n"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Connectivity.DedupWindow)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://127.0.0.1:9000/")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("BRIDGE_TOKEN", "s3cret")

	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/", cfg.API.BaseURL)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 6380, cfg.Storage.Redis.Port)
	assert.Equal(t, "s3cret", cfg.Server.Token)
}

func TestInvalidEnvValue(t *testing.T) {
	t.Setenv("REDIS_PORT", "not-a-port")
	_, err := Parse([]byte("{}"))
	assert.ErrorContains(t, err, "invalid REDIS_PORT")
}

func TestValidationRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown driver":    "storage:\n  driver: floppy\n",
		"mongo without uri": "storage:\n  driver: mongo\n",
		"sql without dsn":   "storage:\n  driver: sql\n",
		"short key":         "storage:\n  encryption_key: short\n",
		"bad log level":     "log:\n  level: loud\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}
