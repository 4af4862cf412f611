// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

// Package config loads service configuration with layered sources:
// built-in defaults, an optional YAML file, then environment variables,
// with later layers overriding earlier ones.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/jthompson-dev/pulserank/internal/logging"
	"github.com/jthompson-dev/pulserank/internal/rank"
)

// DefaultConfigPaths lists where config files are searched, in priority
// order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pulserank/config.yaml",
	"/etc/pulserank/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "PULSERANK_CONFIG"

// envPrefix namespaces the service's environment variables.
const envPrefix = "PULSERANK_"

// Config is the top-level service configuration.
type Config struct {
	// Server configures the HTTP boundary.
	Server ServerConfig `koanf:"server"`

	// Logging configures the global logger.
	Logging logging.Config `koanf:"logging"`

	// Storage configures the profile persistence store.
	Storage StorageConfig `koanf:"storage"`

	// Engine tunes the ranking engine itself.
	Engine rank.Config `koanf:"engine"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8470".
	Addr string `koanf:"addr"`

	// ReadTimeout and WriteTimeout bound request handling.
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 15s.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the per-client request budget per minute. Zero disables
	// rate limiting. Default: 600.
	RateLimit int `koanf:"rate_limit"`

	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// StorageConfig configures the BadgerDB profile store.
type StorageConfig struct {
	// Path is the on-disk database directory. Empty selects an in-memory
	// database (profiles do not survive restarts).
	Path string `koanf:"path"`

	// GCInterval is how often the value-log garbage collector runs.
	// Default: 10m.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// defaultConfig returns the built-in defaults, applied before the config
// file and environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":8470",
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    15 * time.Second,
			RateLimit:          600,
			CORSAllowedOrigins: []string{"*"},
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Path:       "/data/pulserank",
			GCInterval: 10 * time.Minute,
		},
		Engine: *rank.DefaultConfig(),
	}
}

// Load loads configuration from defaults, the first config file found (or
// the explicit path when non-empty), and PULSERANK_* environment variables,
// then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// PULSERANK_SERVER_ADDR -> server.addr, etc. Double underscore
	// separates nested keys whose names themselves contain underscores:
	// PULSERANK_ENGINE__AFFINITY__MATCH_WEIGHT -> engine.affinity.match_weight.
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envTransform maps an environment variable name to a koanf path.
func envTransform(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	if strings.Contains(s, "__") {
		return strings.ReplaceAll(s, "__", ".")
	}
	return strings.ReplaceAll(s, "_", ".")
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server rate_limit must be non-negative, got %d", c.Server.RateLimit)
	}
	if c.Storage.GCInterval <= 0 {
		return fmt.Errorf("storage gc_interval must be positive, got %s", c.Storage.GCInterval)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}
