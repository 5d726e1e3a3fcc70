package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, core.DefaultTickInterval, cfg.Engine.TickInterval)
	assert.Equal(t, core.MaxEventsPerKey, cfg.Engine.MaxEventsPerKey)
	assert.Equal(t, core.MaxTrackedKeys, cfg.Engine.MaxTrackedKeys)
	assert.Equal(t, core.DefaultRetention, cfg.Engine.Retention)
	assert.Equal(t, time.Hour, cfg.Engine.PruneInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Notifications)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
engine:
  tick_interval: 10s
  max_events_per_key: 500
  retention: 48h
  patterns_file: /etc/argus/patterns.yaml
logging:
  level: debug
  development: true
notifications:
  - enabled: true
    url: https://hooks.example.com/argus
    min_severity: high
    rate_per_minute: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Engine.TickInterval)
	assert.Equal(t, 500, cfg.Engine.MaxEventsPerKey)
	assert.Equal(t, 48*time.Hour, cfg.Engine.Retention)
	assert.Equal(t, "/etc/argus/patterns.yaml", cfg.Engine.PatternsFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	require.Len(t, cfg.Notifications, 1)
	n := cfg.Notifications[0]
	assert.True(t, n.Enabled)
	assert.Equal(t, "https://hooks.example.com/argus", n.URL)
	assert.Equal(t, "high", n.MinSeverity)
	assert.Equal(t, 30, n.RatePerMinute)

	// Unset keys keep their defaults.
	assert.Equal(t, core.MaxTrackedKeys, cfg.Engine.MaxTrackedKeys)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ARGUS_LOGGING_LEVEL", "warn")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Engine.TickInterval = 100 * time.Millisecond
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Engine.MaxEventsPerKey = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Engine.Retention = -time.Hour
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Notifications = []WebhookNotification{{Enabled: true}}
	assert.Error(t, cfg.Validate(), "enabled webhook without url")

	cfg = base()
	cfg.Notifications = []WebhookNotification{{Enabled: true, URL: "https://x", MinSeverity: "urgent"}}
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Notifications = []WebhookNotification{{Enabled: false}}
	assert.NoError(t, cfg.Validate(), "disabled webhook needs no url")
}
