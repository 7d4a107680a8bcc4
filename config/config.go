package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/traderank/traderank/metrics"
)

// Config is the complete analyzer configuration.
type Config struct {
	Source  string        `json:"source" yaml:"source"`
	Cache   string        `json:"cache" yaml:"cache"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// MetricsConfig tunes the summary engine.
type MetricsConfig struct {
	Confidence         float64           `json:"confidence" yaml:"confidence"`
	TradingDaysPerYear int               `json:"trading_days_per_year" yaml:"trading_days_per_year"`
	Sessions           []metrics.Session `json:"sessions,omitempty" yaml:"sessions,omitempty"`
}

// JournalConfig selects the realized-trade journal backend.
type JournalConfig struct {
	Type string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// LoadFromFile loads configuration from a file (YAML or JSON based on
// content; YAML is tried first).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on
// extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source directory is required")
	}
	if c.Cache == "" {
		return fmt.Errorf("cache path is required")
	}
	if c.Metrics.Confidence <= 0 || c.Metrics.Confidence >= 1 {
		return fmt.Errorf("metrics.confidence must be between 0 and 1")
	}
	if c.Metrics.TradingDaysPerYear <= 0 {
		return fmt.Errorf("metrics.trading_days_per_year must be positive")
	}
	for _, s := range c.Metrics.Sessions {
		if s.Name == "" {
			return fmt.Errorf("session windows must be named")
		}
		if s.StartHour < 0 || s.EndHour > 24 || s.StartHour >= s.EndHour {
			return fmt.Errorf("session %q: hours must satisfy 0 <= start < end <= 24", s.Name)
		}
	}
	switch c.Journal.Type {
	case "none":
	case "csv", "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s journal", c.Journal.Type)
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error")
	}
	return nil
}

// MetricsParams converts the config into engine parameters.
func (c *Config) MetricsParams() metrics.Params {
	return metrics.Params{
		Confidence:         c.Metrics.Confidence,
		TradingDaysPerYear: c.Metrics.TradingDaysPerYear,
		Sessions:           c.Metrics.Sessions,
	}
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Source: "./data/source",
		Cache:  "./data/cache.json",
		Metrics: MetricsConfig{
			Confidence:         0.95,
			TradingDaysPerYear: 252,
			Sessions:           metrics.DefaultSessions(),
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
