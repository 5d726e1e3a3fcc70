// Package config loads engine configuration from an optional YAML
// file with ARGUS_-prefixed environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"argus/core"
)

// EngineConfig tunes the two evaluation paths.
type EngineConfig struct {
	// TickInterval is the alert scheduler's evaluation period.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// MaxEventsPerKey caps a correlator bucket.
	MaxEventsPerKey int `mapstructure:"max_events_per_key"`
	// MaxTrackedKeys caps the correlator's key space.
	MaxTrackedKeys int `mapstructure:"max_tracked_keys"`
	// AnomalyHistorySize caps the anomaly ledger.
	AnomalyHistorySize int `mapstructure:"anomaly_history_size"`
	// AlertHistorySize caps the alert ledger.
	AlertHistorySize int `mapstructure:"alert_history_size"`
	// Retention is the prune age applied to both ledgers.
	Retention time.Duration `mapstructure:"retention"`
	// PruneInterval is how often the app applies retention.
	PruneInterval time.Duration `mapstructure:"prune_interval"`
	// PatternsFile optionally merges extra anomaly patterns from YAML.
	PatternsFile string `mapstructure:"patterns_file"`
}

// WebhookNotification configures one outbound webhook channel.
type WebhookNotification struct {
	Enabled       bool              `mapstructure:"enabled"`
	URL           string            `mapstructure:"url"`
	Method        string            `mapstructure:"method"`
	Headers       map[string]string `mapstructure:"headers"`
	MinSeverity   string            `mapstructure:"min_severity"`
	Timeout       time.Duration     `mapstructure:"timeout"`
	RatePerMinute int               `mapstructure:"rate_per_minute"`
}

// LoggingConfig tunes the zap logger built by the composition root.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Development switches to the human-readable console encoder.
	Development bool `mapstructure:"development"`
}

// Config holds all configuration for the engine.
type Config struct {
	Engine        EngineConfig          `mapstructure:"engine"`
	Notifications []WebhookNotification `mapstructure:"notifications"`
	Logging       LoggingConfig         `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.tick_interval", core.DefaultTickInterval)
	v.SetDefault("engine.max_events_per_key", core.MaxEventsPerKey)
	v.SetDefault("engine.max_tracked_keys", core.MaxTrackedKeys)
	v.SetDefault("engine.anomaly_history_size", core.DefaultAnomalyHistorySize)
	v.SetDefault("engine.alert_history_size", core.DefaultAlertHistorySize)
	v.SetDefault("engine.retention", core.DefaultRetention)
	v.SetDefault("engine.prune_interval", time.Hour)
	v.SetDefault("engine.patterns_file", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}

// Load reads configuration from the given file path. An empty path
// loads defaults plus environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ARGUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that would misbehave at
// runtime. Fails fast at load rather than at first use.
func (c *Config) Validate() error {
	if c.Engine.TickInterval < time.Second {
		return fmt.Errorf("engine.tick_interval must be at least 1s, got %s", c.Engine.TickInterval)
	}
	if c.Engine.MaxEventsPerKey <= 0 {
		return fmt.Errorf("engine.max_events_per_key must be positive")
	}
	if c.Engine.MaxTrackedKeys <= 0 {
		return fmt.Errorf("engine.max_tracked_keys must be positive")
	}
	if c.Engine.Retention <= 0 {
		return fmt.Errorf("engine.retention must be positive")
	}
	for i, n := range c.Notifications {
		if !n.Enabled {
			continue
		}
		if n.URL == "" {
			return fmt.Errorf("notifications[%d]: enabled webhook requires a url", i)
		}
		if n.MinSeverity != "" && !core.Severity(n.MinSeverity).IsValid() {
			return fmt.Errorf("notifications[%d]: invalid min_severity %q", i, n.MinSeverity)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
