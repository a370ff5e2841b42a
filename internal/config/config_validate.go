// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package config

import (
	"fmt"
	"net/url"

	"github.com/tomtom215/olapic-go/internal/validation"
)

// Validate checks field bounds and the rules that span fields.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateResilience()
}

func (c *Config) validateAPI() error {
	if c.API.AuthKey == "" {
		return fmt.Errorf("OLAPIC_AUTH_KEY is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("OLAPIC_BASE_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("OLAPIC_BASE_URL must use http or https, got %q", u.Scheme)
	}
	return nil
}

func (c *Config) validateResilience() error {
	r := c.Resilience
	if r.MaxRetries > 0 && r.RetryBaseDelay <= 0 {
		return fmt.Errorf("resilience.retry_base_delay must be positive when retries are enabled")
	}
	if !r.BreakerEnabled {
		return nil
	}
	if r.BreakerMaxRequests == 0 {
		return fmt.Errorf("resilience.breaker_max_requests must be at least 1 when the breaker is enabled")
	}
	if r.BreakerTimeout <= 0 {
		return fmt.Errorf("resilience.breaker_timeout must be positive when the breaker is enabled")
	}
	return nil
}
