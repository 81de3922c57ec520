// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/ttcheck/internal/types"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "ttcheck.yaml"

// Config is the root configuration structure.
type Config struct {
	Compatibility CompatibilityConfig `yaml:"compatibility"`
	Diagnostics   DiagnosticsConfig   `yaml:"diagnostics"`
	Logging       LoggingConfig       `yaml:"log"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Watch         WatchConfig         `yaml:"watch"`
}

// CompatibilityConfig configures type compatibility.
type CompatibilityConfig struct {
	// Structured enables structural compatibility of list and field types.
	// A nil value means the default (enabled).
	Structured *bool `yaml:"structured"`
	// StrongKinds lists element kinds eligible for the set of shortcut.
	StrongKinds []string `yaml:"strong_kinds"`
}

// DiagnosticsConfig configures the diagnostic engine.
type DiagnosticsConfig struct {
	MaxErrors        int  `yaml:"max_errors"`
	WarningsAsErrors bool `yaml:"warnings_as_errors"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies TTCHECK_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TTCHECK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TTCHECK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TTCHECK_MAX_ERRORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Diagnostics.MaxErrors = n
		}
	}
	if v := os.Getenv("TTCHECK_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Compatibility.Structured == nil {
		structured := true
		cfg.Compatibility.Structured = &structured
	}
	if cfg.Compatibility.StrongKinds == nil {
		cfg.Compatibility.StrongKinds = types.DefaultStrongKinds().Names()
	}

	if cfg.Diagnostics.MaxErrors == 0 {
		cfg.Diagnostics.MaxErrors = 100
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Prefix == "" {
		cfg.Metrics.Prefix = "ttcheck"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 200 * time.Millisecond
	}
}

// Validate checks the configuration for values no component can use.
func (c *Config) Validate() error {
	if _, err := types.ParseKindSet(c.Compatibility.StrongKinds); err != nil {
		return fmt.Errorf("compatibility.strong_kinds: %w", err)
	}

	if c.Diagnostics.MaxErrors < 0 {
		return fmt.Errorf("diagnostics.max_errors must not be negative, got %d", c.Diagnostics.MaxErrors)
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("log.format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}

	return nil
}

// IsStructured reports whether structural compatibility is enabled
func (c *Config) IsStructured() bool {
	return c.Compatibility.Structured == nil || *c.Compatibility.Structured
}

// StrongKinds returns the parsed strong kind set. Validate has already
// rejected unknown names, so they are skipped here.
func (c *Config) StrongKinds() types.KindSet {
	set, err := types.ParseKindSet(c.Compatibility.StrongKinds)
	if err != nil {
		return types.DefaultStrongKinds()
	}
	return set
}
