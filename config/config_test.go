package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir(), "")

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Views.BulkRequestTimeout)
	assert.Equal(t, uint32(5), cfg.Backend.BreakerThreshold)
	assert.Equal(t, "oilchain-changes", cfg.Azure.QueueName)
	assert.Equal(t, 6379, cfg.Redis.Port)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
environment: production
backend:
  url: https://api.example.mg
  timeout: 5s
views:
  bulk_request_timeout: 3s
redis:
  enabled: false
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := LoadConfig(dir, "")

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "https://api.example.mg", cfg.Backend.URL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Views.BulkRequestTimeout)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("OILCHAIN_BACKEND_URL", "http://backend:9000")
	t.Setenv("OILCHAIN_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfig(t.TempDir(), "")

	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.Backend.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigExplicitFileMustExist(t *testing.T) {
	_, err := LoadConfig("", filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
}

func TestFormatIndex(t *testing.T) {
	assert.Equal(t, "oilchain-records", FormatIndex(ElasticConfig{Prefix: "oilchain"}, "records"))
}
