// Package config provides configuration loading for the jsonldschema CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete CLI configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Schema  SchemaConfig  `yaml:"schema"`
	JSONLD  JSONLDConfig  `yaml:"jsonld"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// SchemaConfig configures schema loading and structural validation
type SchemaConfig struct {
	// BaseDir is where relative $ref files resolve when the schema is read
	// from stdin (empty = working directory)
	BaseDir string `yaml:"base_dir"`
	// HTTPTimeout bounds fetches of remote $ref documents and contexts
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// Draft is the JSON Schema draft used when a schema has no $schema
	Draft string `yaml:"draft"`
}

// JSONLDConfig configures the JSON-LD processor
type JSONLDConfig struct {
	// Base is the base IRI documents are processed against
	Base string `yaml:"base"`
}

// MetricsConfig configures metrics output
type MetricsConfig struct {
	// Textfile, when set, receives the validation metrics in the Prometheus
	// text format after a validate run
	Textfile string `yaml:"textfile"`
}

// Drafts lists the accepted values of schema.draft.
var Drafts = []string{"draft-04", "draft-06", "draft-07", "2019-09", "2020-12"}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Schema: SchemaConfig{
			BaseDir:     "",
			HTTPTimeout: 30 * time.Second,
			Draft:       "draft-07",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if c.Schema.HTTPTimeout < 0 {
		return fmt.Errorf("schema.http_timeout must not be negative")
	}
	known := false
	for _, d := range Drafts {
		if c.Schema.Draft == d {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("schema.draft must be one of %s", strings.Join(Drafts, ", "))
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Schema.BaseDir != "" {
		c.Schema.BaseDir = other.Schema.BaseDir
	}
	if other.Schema.HTTPTimeout != 0 {
		c.Schema.HTTPTimeout = other.Schema.HTTPTimeout
	}
	if other.Schema.Draft != "" {
		c.Schema.Draft = other.Schema.Draft
	}
	if other.JSONLD.Base != "" {
		c.JSONLD.Base = other.JSONLD.Base
	}
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}
}
