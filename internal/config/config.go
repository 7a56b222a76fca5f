// Package config loads the krunch configuration file.
//
// The config file describes the installation (where the database lives,
// how many workers to run). Generation settings that travel with an export
// live in the database instead.
//
// Config file locations (priority order):
//  1. $KRUNCH_CONFIG
//  2. ./krunch.yaml
//  3. $XDG_CONFIG_HOME/krunch/config.yaml
//  4. ~/.config/krunch/config.yaml
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/krunch/internal/attrs"
	"github.com/roach88/krunch/internal/reconcile"
)

// Log formats.
const (
	LogFormatAuto = "auto"
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the on-disk configuration.
type Config struct {
	Version int `yaml:"version"`

	// Database is the path of the SQLite preference store.
	Database string `yaml:"database"`

	// DefaultIterations seeds the store on first use. Once stored, the
	// stored value wins so that exports stay self-contained.
	DefaultIterations uint32 `yaml:"default_iterations"`

	// Workers is the derivation pool size; 0 means one per CPU.
	Workers int `yaml:"workers"`

	Overrides OverridesConfig `yaml:"overrides"`
	Log       LogConfig       `yaml:"log"`
}

// OverridesConfig controls how overrides are saved.
type OverridesConfig struct {
	// InsertEmpty stores an empty entry for a domain even when there is
	// nothing to override.
	InsertEmpty bool `yaml:"insert_empty"`
}

// LogConfig controls the diagnostic log on stderr.
type LogConfig struct {
	// Format is auto, text or json. auto picks text on a terminal.
	Format string `yaml:"format"`
}

// Load finds and loads the config file, or returns defaults if none is
// found. The returned path is empty when defaults are used.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, path, nil
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// DefaultConfig returns the configuration of a fresh installation.
func DefaultConfig() *Config {
	return &Config{
		Version:           1,
		Database:          DefaultDatabasePath(),
		DefaultIterations: attrs.DefaultIterations,
		Log:               LogConfig{Format: LogFormatAuto},
	}
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database == "" {
		c.Database = DefaultDatabasePath()
	}
	if c.DefaultIterations == 0 {
		c.DefaultIterations = attrs.DefaultIterations
	}
	if c.Log.Format == "" {
		c.Log.Format = LogFormatAuto
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	switch c.Log.Format {
	case LogFormatAuto, LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("log.format must be %s, %s or %s, got %q",
			LogFormatAuto, LogFormatText, LogFormatJSON, c.Log.Format)
	}
	return nil
}

// Policy returns the override save policy.
func (c *Config) Policy() reconcile.Policy {
	if c.Overrides.InsertEmpty {
		return reconcile.PolicyAlwaysInsert
	}
	return reconcile.PolicySkipEmpty
}
