package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
weather:
  source: open-meteo
  timeout: 5
  refresh_interval: 600
  open_meteo:
    breaker_max_failures: 3
location:
  permission: denied
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "open-meteo", cfg.Weather.Source)
	assert.Equal(t, 5*time.Second, cfg.Weather.FetchTimeout())
	assert.Equal(t, 10*time.Minute, cfg.Weather.RefreshEvery())
	assert.Equal(t, 3, cfg.Weather.OpenMeteo.BreakerMaxFailures)
	assert.Equal(t, "https://api.open-meteo.com/v1", cfg.Weather.OpenMeteo.BaseURL)
	assert.Equal(t, "denied", cfg.Location.Permission)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Weather.Workers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("WSTATE_SERVER_PORT", "7070")
	t.Setenv("WSTATE_WEATHER_MOCK_LATENCY_MS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Weather.Mock.LatencyMS)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownSource(t *testing.T) {
	path := writeConfig(t, "weather:\n  source: carrier-pigeon\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestNewDefaultConfig_IsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "mock", cfg.Weather.Source)
	assert.Zero(t, cfg.Weather.RefreshEvery())
}

func TestSetGetConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Environment = "test"
	SetConfig(cfg)

	assert.Same(t, cfg, GetConfig())
}
