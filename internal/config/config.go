// Package config loads the graph engine's tuning knobs from environment
// variables, with an optional YAML override file layered on top —
// following the same two-source pattern as the teacher's apoc/config.go
// (file-or-default, then environment variables take precedence).
//
// Environment Variables:
//
//	GRAPHQL_INITIAL_NODES         - initial per-graph node capacity (default: 1024)
//	GRAPHQL_INITIAL_RELATIONSHIPS - initial per-graph relationship capacity (default: 1024)
//	GRAPHQL_CACHE_SIZE            - max plan cache entries per graph (default: 256)
//	GRAPHQL_CACHE_TTL             - plan cache entry TTL, e.g. "10m" (default: 0, no expiry)
//	GRAPHQL_LOG_LEVEL             - debug, warn, error, or silent (default: debug)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds engine-wide tuning knobs.
type Config struct {
	// InitialNodes is the node capacity a graph is created with (§6).
	InitialNodes uint64 `yaml:"initial_nodes"`
	// InitialRelationships is the relationship capacity a graph is created with (§6).
	InitialRelationships uint64 `yaml:"initial_relationships"`
	// CacheSize bounds the per-graph plan cache (§4.8).
	CacheSize int `yaml:"cache_size"`
	// CacheTTL expires a cached plan this long after it was inserted (a hit
	// does not extend it); zero disables expiry.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// LogLevel is one of debug, warn, error, silent.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the engine's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		InitialNodes:         1024,
		InitialRelationships: 1024,
		CacheSize:            256,
		CacheTTL:             0,
		LogLevel:             "debug",
	}
}

// LoadConfig reads a YAML override file, falling back to defaults for any
// field left unspecified.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault is LoadConfig with file-not-found/parse errors
// silently falling back to DefaultConfig, for callers that treat the
// override file as optional.
func LoadConfigOrDefault(path string) *Config {
	if path == "" {
		return DefaultConfig()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// LoadFromEnv loads Config from environment variables, optionally layered
// on top of a YAML file (filePath may be empty). Environment variables
// always take precedence over the file.
func LoadFromEnv(filePath string) *Config {
	cfg := LoadConfigOrDefault(filePath)

	if v := os.Getenv("GRAPHQL_INITIAL_NODES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.InitialNodes = n
		}
	}
	if v := os.Getenv("GRAPHQL_INITIAL_RELATIONSHIPS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.InitialRelationships = n
		}
	}
	if v := os.Getenv("GRAPHQL_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheSize = n
		}
	}
	if v := os.Getenv("GRAPHQL_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}
	if v := os.Getenv("GRAPHQL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

// Validate rejects nonsensical configuration before it reaches the engine.
func (c *Config) Validate() error {
	if c.InitialNodes == 0 {
		return fmt.Errorf("initial_nodes must be greater than zero")
	}
	if c.InitialRelationships == 0 {
		return fmt.Errorf("initial_relationships must be greater than zero")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be greater than zero")
	}
	switch c.LogLevel {
	case "debug", "warn", "error", "silent":
	default:
		return fmt.Errorf("log_level must be one of debug, warn, error, silent, got %q", c.LogLevel)
	}
	return nil
}
