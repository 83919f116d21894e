// Package config loads the eqlog command line configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. EQLOG_WINDOW=45s.
const EnvPrefix = "EQLOG_"

// EnvConfigFile names the YAML file to load when no path is given.
const EnvConfigFile = "EQLOG_CONFIG"

// Config contains the settings shared by the eqlog commands.
type Config struct {
	// LogDir is the EverQuest Logs directory. Empty means auto-detect.
	LogDir string `koanf:"log_dir"`

	// LogPath selects a log file directly, bypassing discovery.
	LogPath string `koanf:"log_path"`

	// Window is the DPS calculation window.
	Window time.Duration `koanf:"window"`

	// PublishInterval is how often the meter refreshes.
	PublishInterval time.Duration `koanf:"publish_interval"`

	// Poll watches the log by polling instead of filesystem notifications.
	Poll bool `koanf:"poll"`

	// PatternFiles are YAML custom pattern files, tried before the built-in patterns.
	PatternFiles []string `koanf:"pattern_files"`

	// MetricsAddr serves Prometheus metrics when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile sends diagnostics to a rotating file instead of stderr.
	LogFile       string `koanf:"log_file"`
	LogMaxSizeMB  int    `koanf:"log_max_size_mb"`
	LogMaxBackups int    `koanf:"log_max_backups"`
	LogMaxAgeDays int    `koanf:"log_max_age_days"`
	LogCompress   bool   `koanf:"log_compress"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		Window:          30 * time.Second,
		PublishInterval: time.Second,
		LogLevel:        "info",
		LogMaxSizeMB:    10,
		LogMaxBackups:   3,
		LogMaxAgeDays:   28,
	}
}

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. YAML file at path, or at $EQLOG_CONFIG when path is empty
//  3. env (prefix EQLOG_, flat lower_snake keys)
//
// Command line flags are applied by the caller on top of the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// EQLOG_PUBLISH_INTERVAL -> publish_interval
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %v", c.Window))
	}
	if c.PublishInterval <= 0 {
		errs = append(errs, fmt.Errorf("publish_interval must be positive, got %v", c.PublishInterval))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxBackups < 0 || c.LogMaxAgeDays < 0 {
		errs = append(errs, errors.New("log rotation limits must be non-negative"))
	}
	return errors.Join(errs...)
}

// Level returns the slog level for LogLevel. Invalid values fall back to info.
func (c *Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel converts debug, info, warn or error to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: use debug, info, warn or error", s)
	}
	return lvl, nil
}
