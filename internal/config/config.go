// Package config loads the scenetrack configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Manuscript string         `yaml:"manuscript"`
	Snapshot   string         `yaml:"snapshot,omitempty"`
	HistoryDB  string         `yaml:"history_db,omitempty"`
	Resolver   ResolverConfig `yaml:"resolver,omitempty"`
	Watch      WatchConfig    `yaml:"watch,omitempty"`
}

// ResolverConfig tunes anchor resolution.
type ResolverConfig struct {
	Corridor   int `yaml:"corridor,omitempty"`
	ContextMin int `yaml:"context_min,omitempty"`
	Workers    int `yaml:"workers,omitempty"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce Duration `yaml:"debounce,omitempty"`
	Interval Duration `yaml:"interval,omitempty"` // polling fallback, 0 disables
}

// Duration is a time.Duration that unmarshals from YAML strings like "400ms".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"400ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Snapshot:  ".scenetrack/fingerprints.json",
		HistoryDB: ".scenetrack/history.db",
		Resolver: ResolverConfig{
			Corridor:   1500,
			ContextMin: 8,
		},
		Watch: WatchConfig{
			Debounce: Duration(400 * time.Millisecond),
		},
	}
}

// Load loads configuration from the specified file. A missing file yields the
// defaults; a present but unreadable or invalid file is an error.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists; process env wins over file values.
	_ = godotenv.Load()

	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Snapshot == "" {
		c.Snapshot = d.Snapshot
	}
	if c.HistoryDB == "" {
		c.HistoryDB = d.HistoryDB
	}
	if c.Resolver.Corridor == 0 {
		c.Resolver.Corridor = d.Resolver.Corridor
	}
	if c.Resolver.ContextMin == 0 {
		c.Resolver.ContextMin = d.Resolver.ContextMin
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = d.Watch.Debounce
	}
}

func (c *Config) validate() error {
	if c.Resolver.Corridor < 0 {
		return fmt.Errorf("resolver.corridor must not be negative, got %d", c.Resolver.Corridor)
	}
	if c.Resolver.ContextMin < 0 {
		return fmt.Errorf("resolver.context_min must not be negative, got %d", c.Resolver.ContextMin)
	}
	if c.Resolver.Workers < 0 {
		return fmt.Errorf("resolver.workers must not be negative, got %d", c.Resolver.Workers)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce.Std())
	}
	return nil
}
