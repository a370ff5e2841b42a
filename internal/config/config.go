// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

// Package config loads SDK settings with Koanf v2.
//
// Layers, lowest priority first:
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file: $OLAPIC_CONFIG_PATH, then olapic.yaml / olapic.yml
//  3. Environment variables (OLAPIC_AUTH_KEY, OLAPIC_BASE_URL, LOG_LEVEL, ...)
//
// A minimal olapic.yaml:
//
//	api:
//	  auth_key: "0a40a13fd9d531110b4d6515ef0d6c529acdb59e81194132356a1b8903790c18"
//	media_list:
//	  default_sorting: photorank
//	  media_per_page: 30
package config

import "time"

// Config is the complete SDK configuration. It is not modified after Load.
type Config struct {
	API        APIConfig        `koanf:"api"`
	MediaList  MediaListConfig  `koanf:"media_list"`
	Resilience ResilienceConfig `koanf:"resilience"`
	Cache      CacheConfig      `koanf:"cache"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// APIConfig addresses and authenticates against the Olapic API.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	AuthKey   string        `koanf:"auth_key"`
	Version   string        `koanf:"version"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	UserAgent string        `koanf:"user_agent"`
}

// MediaListConfig holds the defaults for new media lists.
type MediaListConfig struct {
	DefaultSorting string `koanf:"default_sorting" validate:"required,sorting"`
	MediaPerPage   int    `koanf:"media_per_page" validate:"min=1,max=100"`
}

// ResilienceConfig tunes the transport: 429 retries, client-side pacing and
// the circuit breaker.
type ResilienceConfig struct {
	MaxRetries     int           `koanf:"max_retries" validate:"min=0,max=10"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay" validate:"gte=0"`

	// RateLimitRPS of 0 disables client-side pacing.
	RateLimitRPS   float64 `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"min=1"`

	BreakerEnabled      bool          `koanf:"breaker_enabled"`
	BreakerMaxRequests  uint32        `koanf:"breaker_max_requests"`
	BreakerInterval     time.Duration `koanf:"breaker_interval" validate:"gte=0"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout" validate:"gte=0"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
}

// CacheConfig sizes the entity lookup cache.
type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Capacity int           `koanf:"capacity" validate:"min=1"`
	TTL      time.Duration `koanf:"ttl" validate:"gt=0"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level   string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format  string `koanf:"format" validate:"oneof=json console"`
	Caller  bool   `koanf:"caller"`
	LogURLs bool   `koanf:"log_urls"`
}
