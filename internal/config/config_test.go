package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clanwake/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clanwake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(config.PingURLEnv, "")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPingURL, cfg.PingURL)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 1000, cfg.DelayMS)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "backend", cfg.Targets[0].ID)
	assert.Equal(t, config.DefaultPingURL, cfg.Targets[0].URL)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(config.PingURLEnv, "")

	path := writeConfig(t, `
ping_url: https://api.example.org/api/ping
max_attempts: 8
delay_ms: 250
log_level: debug
keep_warm_interval_seconds: 120
targets:
  - id: api
    url: https://api.example.org/api/ping
  - id: sockets
    name: Socket gateway
    url: https://ws.example.org/health
    max_attempts: 2
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.org/api/ping", cfg.PingURL)
	assert.Equal(t, 8, cfg.MaxAttempts)
	assert.Equal(t, 250, cfg.DelayMS)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 120, cfg.IntervalSeconds)
	require.Len(t, cfg.Targets, 2)
	assert.Equal(t, "api", cfg.Targets[0].Name)
	assert.Equal(t, "Socket gateway", cfg.Targets[1].Name)
	assert.Equal(t, 2, cfg.Targets[1].MaxAttempts)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(config.PingURLEnv, "https://override.example.org/api/ping")

	path := writeConfig(t, "ping_url: https://file.example.org/api/ping\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.org/api/ping", cfg.PingURL)
}

func TestLoadRejectsBadTargets(t *testing.T) {
	t.Setenv(config.PingURLEnv, "")

	cases := map[string]string{
		"missing id":  "targets:\n  - url: http://a\n",
		"missing url": "targets:\n  - id: a\n",
		"duplicate":   "targets:\n  - id: a\n    url: http://a\n  - id: a\n    url: http://b\n",
		"bad yaml":    "targets: [",
	}
	for name, body := range cases {
		_, err := config.Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}
