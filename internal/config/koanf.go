// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

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

	"github.com/tomtom215/olapic-go/internal/entity"
)

// DefaultBaseURL is the public Olapic API host.
const DefaultBaseURL = "https://photorankapi-a.akamaihd.net"

// DefaultConfigPaths are searched in order when no path is given.
var DefaultConfigPaths = []string{
	"olapic.yaml",
	"olapic.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "OLAPIC_CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Version:   "v2.2",
			Timeout:   30 * time.Second,
			UserAgent: "olapic-go/1.0",
		},
		MediaList: MediaListConfig{
			DefaultSorting: "recent",
			MediaPerPage:   20,
		},
		Resilience: ResilienceConfig{
			MaxRetries:          3,
			RetryBaseDelay:      time.Second,
			RateLimitRPS:        10,
			RateLimitBurst:      20,
			BreakerEnabled:      true,
			BreakerMaxRequests:  3,
			BreakerInterval:     time.Minute,
			BreakerTimeout:      2 * time.Minute,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 1000,
			TTL:      5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "json",
		},
	}
}

// Default returns the built-in defaults. The result has no auth key and
// does not pass Validate until one is set.
func Default() *Config {
	return defaultConfig()
}

// Load reads defaults, the first config file found and the environment.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit YAML file.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// OLAPIC_AUTH_KEY -> api.auth_key and so on; see envTransformFunc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file or "".
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

// envMappings maps lower-cased environment variable names to koanf paths.
// Variables not listed are ignored.
var envMappings = map[string]string{
	"olapic_auth_key":    "api.auth_key",
	"olapic_base_url":    "api.base_url",
	"olapic_api_version": "api.version",
	"olapic_timeout":     "api.timeout",
	"olapic_user_agent":  "api.user_agent",

	"olapic_sorting":        "media_list.default_sorting",
	"olapic_media_per_page": "media_list.media_per_page",

	"olapic_max_retries":           "resilience.max_retries",
	"olapic_retry_base_delay":      "resilience.retry_base_delay",
	"olapic_rate_limit_rps":        "resilience.rate_limit_rps",
	"olapic_rate_limit_burst":      "resilience.rate_limit_burst",
	"olapic_breaker_enabled":       "resilience.breaker_enabled",
	"olapic_breaker_timeout":       "resilience.breaker_timeout",
	"olapic_breaker_failure_ratio": "resilience.breaker_failure_ratio",

	"olapic_cache_enabled":  "cache.enabled",
	"olapic_cache_capacity": "cache.capacity",
	"olapic_cache_ttl":      "cache.ttl",

	"log_level":       "logging.level",
	"log_format":      "logging.format",
	"log_caller":      "logging.caller",
	"olapic_log_urls": "logging.log_urls",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// normalize lower-cases enumerations, maps sort aliases to their API key
// and trims the base URL.
func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.API.AuthKey = strings.TrimSpace(c.API.AuthKey)
	c.MediaList.DefaultSorting = strings.ToLower(strings.TrimSpace(c.MediaList.DefaultSorting))
	if s, err := entity.ParseSorting(c.MediaList.DefaultSorting); err == nil {
		c.MediaList.DefaultSorting = string(s)
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}
