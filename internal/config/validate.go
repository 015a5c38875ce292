// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// Validate checks struct-tag constraints first, then the cross-section rules
// tags cannot express.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}

	if err := c.validateBus(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	return c.validateRateLimits()
}

// Validate checks a standalone client configuration.
func (c *ClientConfig) Validate() error {
	return validateStruct(c)
}

// validateStruct runs validator tags and flattens the first failure into a
// readable error naming the koanf path.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Namespace())
	if fe.Param() != "" {
		return fmt.Errorf("%s: failed %q=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("%s: failed %q (got %v)", field, fe.Tag(), fe.Value())
}

// validateBus validates the NATS backend settings.
func (c *Config) validateBus() error {
	if c.Bus.Backend != "nats" {
		return nil
	}
	if c.Bus.URL == "" && !c.Bus.EmbeddedServer {
		return fmt.Errorf("NATS_URL is required when BUS_BACKEND=nats and NATS_EMBEDDED=false")
	}
	if c.Bus.EmbeddedServer && c.Bus.EmbeddedPort == 0 {
		return fmt.Errorf("NATS_EMBEDDED_PORT must be set when NATS_EMBEDDED=true")
	}
	return nil
}

// validateCORS rejects wildcard origins in production. The WebSocket origin
// check uses the same list, so a wildcard would accept any site.
func (c *Config) validateCORS() error {
	if c.IsProduction() && c.HasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production; " +
			"set specific origins: CORS_ORIGINS=https://dash.example.com")
	}
	return nil
}

// HasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}
