// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

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
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/dashsync/config.yaml",
	"/etc/dashsync/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Client: DefaultClientConfig(),
		Server: ServerConfig{
			Port:            3858,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
			MaxMessageSize:  4096,
			SendBuffer:      256,
			CommandRate:     5,
			CommandBurst:    20,
		},
		Bus: BusConfig{
			Backend:              "memory",
			Topic:                "dashboard.changes",
			URL:                  "nats://127.0.0.1:4222",
			EmbeddedServer:       false,
			EmbeddedHost:         "127.0.0.1",
			EmbeddedPort:         4222,
			BufferSize:           1024,
			PublishTimeout:       5 * time.Second,
			BreakerMaxRequests:   3,
			BreakerInterval:      time.Minute,
			BreakerTimeout:       30 * time.Second,
			BreakerFailureThresh: 5,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// DefaultClientConfig returns the realtime client defaults. Embedding
// applications that do not load a full Config start from this.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:                  "ws://localhost:3858/ws",
		MaxReconnectAttempts: 5,
		ReconnectDelay:       time.Second,
		ReconnectDelayMax:    5 * time.Second,
		ReconnectJitter:      0.5,
		HandshakeTimeout:     10 * time.Second,
		PingInterval:         25 * time.Second,
		PongWait:             60 * time.Second,
		WriteWait:            10 * time.Second,
		SendBuffer:           64,
		MaxMessageSize:       512 * 1024,
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile loads configuration with an explicit YAML file layered over the
// defaults. Environment variables still take precedence.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DASHSYNC_URL -> client.url, BUS_BACKEND -> bus.backend
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
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

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Realtime client
	"dashsync_url":                    "client.url",
	"dashsync_max_reconnect_attempts": "client.max_reconnect_attempts",
	"dashsync_reconnect_delay":        "client.reconnect_delay",
	"dashsync_reconnect_delay_max":    "client.reconnect_delay_max",
	"dashsync_reconnect_jitter":       "client.reconnect_jitter",
	"dashsync_handshake_timeout":      "client.handshake_timeout",
	"dashsync_ping_interval":          "client.ping_interval",
	"dashsync_pong_wait":              "client.pong_wait",
	"dashsync_write_wait":             "client.write_wait",
	"dashsync_send_buffer":            "client.send_buffer",

	// Server
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"shutdown_timeout":    "server.shutdown_timeout",
	"environment":         "server.environment",
	"ws_max_message_size": "server.max_message_size",
	"ws_send_buffer":      "server.send_buffer",
	"ws_command_rate":     "server.command_rate",
	"ws_command_burst":    "server.command_burst",

	// Change-event bus
	"bus_backend":                   "bus.backend",
	"bus_topic":                     "bus.topic",
	"nats_url":                      "bus.url",
	"nats_embedded":                 "bus.embedded_server",
	"nats_embedded_host":            "bus.embedded_host",
	"nats_embedded_port":            "bus.embedded_port",
	"bus_buffer_size":               "bus.buffer_size",
	"bus_publish_timeout":           "bus.publish_timeout",
	"bus_breaker_max_requests":      "bus.breaker_max_requests",
	"bus_breaker_interval":          "bus.breaker_interval",
	"bus_breaker_timeout":           "bus.breaker_timeout",
	"bus_breaker_failure_threshold": "bus.breaker_failure_threshold",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DASHSYNC_URL -> client.url
//   - HTTP_PORT -> server.port
//   - NATS_URL -> bus.url
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	// Unmapped keys return "" and are skipped, so unrelated environment
	// variables never reach the config.
	return envMappings[strings.ToLower(key)]
}
