// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package config loads server configuration in three layers with clear
// precedence: built-in defaults, then an optional YAML config file, then
// TABLEMIX_-prefixed environment variables. The loaded value is validated
// before use.
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

	"github.com/tomtom215/tablemix/internal/logging"
	"github.com/tomtom215/tablemix/internal/scoring"
	"github.com/tomtom215/tablemix/internal/storage"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tablemix/config.yaml",
	"/etc/tablemix/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "TABLEMIX_CONFIG_PATH"

// envPrefix scopes the environment variable layer.
const envPrefix = "TABLEMIX_"

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is requests per minute per client IP. 0 disables limiting.
	RateLimit int `koanf:"rate_limit"`

	// CORSOrigins is the allowed origin list. Empty allows none.
	CORSOrigins []string `koanf:"cors_origins"`
}

// FeedConfig holds the NATS signal feed settings.
type FeedConfig struct {
	// Enabled turns the JetStream signal consumer on.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server address. Ignored when Embedded is set.
	URL string `koanf:"url"`

	// Embedded runs an in-process NATS server for single-binary
	// deployments.
	Embedded bool `koanf:"embedded"`

	// StoreDir is the embedded server's JetStream storage directory.
	StoreDir string `koanf:"store_dir"`

	// Topic is the subject interaction signals are published on.
	Topic string `koanf:"topic"`

	// DurableName identifies the durable JetStream consumer.
	DurableName string `koanf:"durable_name"`
}

// SchedulingConfig holds the default table bounds used when a create
// request leaves them unset.
type SchedulingConfig struct {
	DefaultMinTableSize int `koanf:"default_min_table_size"`
	DefaultMaxTableSize int `koanf:"default_max_table_size"`
}

// Config is the full server configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    logging.Config   `koanf:"logging"`
	Storage    storage.Config   `koanf:"storage"`
	Feed       FeedConfig       `koanf:"feed"`
	Scheduling SchedulingConfig `koanf:"scheduling"`
	Scoring    scoring.Config   `koanf:"scoring"`
}

// defaultConfig returns the built-in defaults, applied first and then
// overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       300,
			CORSOrigins:     nil,
		},
		Logging: logging.Config{
			Level:     "info",
			Format:    "json",
			Timestamp: true,
		},
		Storage: storage.Config{
			Path:     "/data/tablemix",
			InMemory: false,
		},
		Feed: FeedConfig{
			Enabled:     false,
			URL:         "nats://127.0.0.1:4222",
			Embedded:    false,
			StoreDir:    "/data/nats/jetstream",
			Topic:       "tablemix.signals",
			DurableName: "signal-processor",
		},
		Scheduling: SchedulingConfig{
			DefaultMinTableSize: 3,
			DefaultMaxTableSize: 4,
		},
		Scoring: scoring.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, the optional config file,
// and the environment, then validates it. An explicit path (from the
// --config flag) takes precedence over the search paths.
func Load(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configPath := explicitPath
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// TABLEMIX_SERVER_PORT -> server.port, TABLEMIX_FEED_URL -> feed.url.
	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Scheduling.DefaultMinTableSize < 2 {
		return fmt.Errorf("scheduling.default_min_table_size must be at least 2")
	}
	if c.Scheduling.DefaultMinTableSize > c.Scheduling.DefaultMaxTableSize {
		return fmt.Errorf("scheduling.default_min_table_size exceeds default_max_table_size")
	}
	if c.Feed.Enabled {
		if c.Feed.Topic == "" {
			return fmt.Errorf("feed.topic is required when the feed is enabled")
		}
		if !c.Feed.Embedded && c.Feed.URL == "" {
			return fmt.Errorf("feed.url is required when the feed is enabled without an embedded server")
		}
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	return nil
}

// findConfigFile searches the default paths, honoring the env override.
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

// envTransformFunc maps TABLEMIX_SECTION_SOME_KEY to section.some_key.
// Only the first underscore separates the section; the rest of the key
// keeps its underscores.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		return key
	}
	return parts[0] + "." + parts[1]
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when supplied through the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. Env vars arrive as strings; the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("setting %s: %w", path, err)
			}
		}
	}
	return nil
}
