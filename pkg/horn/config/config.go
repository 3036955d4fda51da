package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
)

// Config represents the engine configuration
type Config struct {
	UnknownPredicate string   `yaml:"unknown_predicate"`
	Preprocess       bool     `yaml:"preprocess"`
	LogLevel         string   `yaml:"log_level"`
	SQLite           SQLite   `yaml:"sqlite"`
	FactFiles        []string `yaml:"fact_files"`
}

// SQLite configures the database whose tables are exposed as relations
type SQLite struct {
	Path      string     `yaml:"path"`
	Relations []Relation `yaml:"relations"`
}

// Relation maps a predicate name onto a table
type Relation struct {
	Name    string   `yaml:"name"`
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		UnknownPredicate: "error",
		Preprocess:       true,
		LogLevel:         "info",
	}
}

// Load loads configuration from a YAML file. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML configuration
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %v: %w", err, internalerr.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that can be checked without opening anything
func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if len(c.SQLite.Relations) > 0 && c.SQLite.Path == "" {
		return fmt.Errorf("sqlite relations without sqlite.path: %w", internalerr.ErrInvalidConfig)
	}
	seen := make(map[kb.PredicateKey]bool)
	for i, r := range c.SQLite.Relations {
		if r.Name == "" || r.Table == "" || len(r.Columns) == 0 {
			return fmt.Errorf("sqlite.relations[%d]: name, table and columns are required: %w", i, internalerr.ErrInvalidConfig)
		}
		key := kb.NewKey(r.Name, len(r.Columns))
		if seen[key] {
			return fmt.Errorf("sqlite.relations[%d]: duplicate relation %s: %w", i, key, internalerr.ErrInvalidConfig)
		}
		seen[key] = true
	}
	for i, f := range c.FactFiles {
		if f == "" {
			return fmt.Errorf("fact_files[%d]: empty path: %w", i, internalerr.ErrInvalidConfig)
		}
	}
	return nil
}

// Policy returns the unknown-predicate policy named by UnknownPredicate
func (c *Config) Policy() (kb.UnknownPolicy, error) {
	switch c.UnknownPredicate {
	case "", "error":
		return kb.UnknownError, nil
	case "fail":
		return kb.UnknownFail, nil
	}
	return 0, fmt.Errorf("unknown_predicate: %q is not error or fail: %w", c.UnknownPredicate, internalerr.ErrInvalidConfig)
}

// Level returns the slog level named by LogLevel
func (c *Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %v: %w", err, internalerr.ErrInvalidConfig)
	}
	return l, nil
}
