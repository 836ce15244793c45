package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingDefaultUsesBuiltins(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingNamedFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFileOverDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
dataset:
  source: sqlite
  path: data/unilife.db
flow:
  mode: guided
  soonest_events: 5
redis:
  addr: localhost:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dataset.Source)
	assert.Equal(t, "data/unilife.db", cfg.Dataset.Path)
	assert.Equal(t, "catalog", cfg.Dataset.Table, "unset keys keep their defaults")
	assert.Equal(t, "guided", cfg.Flow.Mode)
	assert.Equal(t, 0.34, cfg.Flow.ConfidenceThreshold)
	assert.Equal(t, 5, cfg.Flow.SoonestEvents)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("UNIBOT_LOG_LEVEL=debug\n"), 0644))
	// godotenv writes to the process environment
	t.Cleanup(func() { os.Unsetenv("UNIBOT_LOG_LEVEL") })
	t.Setenv("UNIBOT_FLOW_MODE", "guided")
	t.Setenv("UNIBOT_SERVER_PORT", "9090")
	t.Setenv("UNIBOT_FLOW_CONFIDENCE_THRESHOLD", "0.5")
	t.Setenv("UNIBOT_REDIS_MAX_LEN", "42")

	cfg, err := Load(writeConfig(t, "flow:\n  mode: open\n"))
	require.NoError(t, err)
	assert.Equal(t, "guided", cfg.Flow.Mode, "environment beats the file")
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Flow.ConfidenceThreshold)
	assert.Equal(t, int64(42), cfg.Redis.MaxLen)
	assert.Equal(t, "debug", cfg.Log.Level, "read from .env")
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		content     string
		env         map[string]string
		errContains string
		description string
	}{
		{"flow: [", nil, "failed to parse YAML", "malformed yaml"},
		{"flow:\n  mode: chatty\n", nil, "Mode", "unknown mode"},
		{"dataset:\n  source: parquet\n", nil, "Source", "unknown source"},
		{"flow:\n  confidence_threshold: 1.5\n", nil, "ConfidenceThreshold", "threshold above one"},
		{"flow:\n  soonest_events: 0\n", nil, "SoonestEvents", "no events"},
		{"log:\n  level: loud\n", nil, "Level", "unknown level"},
		{"", map[string]string{"UNIBOT_SERVER_PORT": "http"}, "invalid integer", "bad env integer"},
		{"", map[string]string{"UNIBOT_FLOW_CONFIDENCE_THRESHOLD": "high"}, "invalid number", "bad env float"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errContains)
		})
	}
}

func TestApplyEnvIgnoresUnset(t *testing.T) {
	cfg := Default()
	require.NoError(t, applyEnv(cfg, func(string) (string, bool) { return "", false }))
	assert.Equal(t, Default(), cfg)
}
