// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{
			name:    "zero reconnect attempts",
			mutate:  func(c *Config) { c.Client.MaxReconnectAttempts = 0 },
			wantErr: "maxreconnectattempts",
		},
		{
			name:    "delay cap below initial delay",
			mutate:  func(c *Config) { c.Client.ReconnectDelayMax = 100 * time.Millisecond },
			wantErr: "reconnectdelaymax",
		},
		{
			name:    "ping interval not below pong wait",
			mutate:  func(c *Config) { c.Client.PingInterval = 2 * time.Minute },
			wantErr: "pinginterval",
		},
		{
			name:    "jitter above one",
			mutate:  func(c *Config) { c.Client.ReconnectJitter = 1.5 },
			wantErr: "reconnectjitter",
		},
		{
			name:    "invalid client url",
			mutate:  func(c *Config) { c.Client.URL = "not a url" },
			wantErr: "client.url",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "unknown bus backend",
			mutate:  func(c *Config) { c.Bus.Backend = "kafka" },
			wantErr: "bus.backend",
		},
		{
			name: "nats without url or embedded server",
			mutate: func(c *Config) {
				c.Bus.Backend = "nats"
				c.Bus.URL = ""
			},
			wantErr: "NATS_URL",
		},
		{
			name: "nats with embedded server only",
			mutate: func(c *Config) {
				c.Bus.Backend = "nats"
				c.Bus.URL = ""
				c.Bus.EmbeddedServer = true
			},
		},
		{
			name: "wildcard cors in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
			},
			wantErr: "CORS_ORIGINS",
		},
		{
			name: "explicit cors in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.CORSOrigins = []string{"https://dash.example.com"}
			},
		},
		{
			name:    "rate limit window too small",
			mutate:  func(c *Config) { c.Security.RateLimitWindow = time.Millisecond },
			wantErr: "RATE_LIMIT_WINDOW",
		},
		{
			name: "rate limit bounds ignored when disabled",
			mutate: func(c *Config) {
				c.Security.RateLimitDisabled = true
				c.Security.RateLimitReqs = 0
			},
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestClientConfigValidate(t *testing.T) {
	cfg := DefaultClientConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default client config should validate: %v", err)
	}

	cfg.SendBuffer = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero send buffer")
	}
}
