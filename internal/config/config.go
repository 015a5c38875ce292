// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Client   ClientConfig   `koanf:"client"`
	Server   ServerConfig   `koanf:"server"`
	Bus      BusConfig      `koanf:"bus"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ClientConfig configures the realtime dashboard client.
type ClientConfig struct {
	// URL is the WebSocket endpoint of a room hub.
	// Default: ws://localhost:3858/ws
	URL string `koanf:"url" validate:"required,url"`

	// MaxReconnectAttempts bounds consecutive failed connection attempts,
	// counting the first dial. Once reached, the client stays disconnected
	// until Connect is called again.
	// Default: 5
	MaxReconnectAttempts int `koanf:"max_reconnect_attempts" validate:"min=1,max=1000"`

	// ReconnectDelay is the wait before the first retry; it doubles per
	// failure up to ReconnectDelayMax.
	// Default: 1s
	ReconnectDelay time.Duration `koanf:"reconnect_delay" validate:"gt=0"`

	// ReconnectDelayMax caps the retry delay.
	// Default: 5s
	ReconnectDelayMax time.Duration `koanf:"reconnect_delay_max" validate:"gtefield=ReconnectDelay"`

	// ReconnectJitter randomizes each delay by +/- this factor. 0 disables it.
	// Default: 0.5
	ReconnectJitter float64 `koanf:"reconnect_jitter" validate:"min=0,max=1"`

	HandshakeTimeout time.Duration `koanf:"handshake_timeout" validate:"gt=0"`
	PingInterval     time.Duration `koanf:"ping_interval" validate:"gt=0,ltfield=PongWait"`
	PongWait         time.Duration `koanf:"pong_wait" validate:"gt=0"`
	WriteWait        time.Duration `koanf:"write_wait" validate:"gt=0"`

	// SendBuffer is the outbound frame queue length. A full queue drops frames.
	SendBuffer int `koanf:"send_buffer" validate:"min=1"`

	// MaxMessageSize is the largest inbound frame accepted, in bytes.
	MaxMessageSize int64 `koanf:"max_message_size" validate:"min=1024"`
}

// ServerConfig holds HTTP listener and room hub settings.
type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	Environment     string        `koanf:"environment" validate:"oneof=development staging production"`

	// MaxMessageSize is the largest inbound command frame, in bytes.
	MaxMessageSize int64 `koanf:"max_message_size" validate:"min=256"`

	// SendBuffer is each connection's outbound queue length. A member whose
	// queue is full is disconnected.
	SendBuffer int `koanf:"send_buffer" validate:"min=1"`

	// CommandRate and CommandBurst limit join/leave commands per connection.
	CommandRate  float64 `koanf:"command_rate" validate:"gt=0"`
	CommandBurst int     `koanf:"command_burst" validate:"min=1"`
}

// BusConfig selects the change-event bus that carries published dashboard
// changes to every hub instance.
type BusConfig struct {
	// Backend is "memory" (single process) or "nats".
	Backend string `koanf:"backend" validate:"oneof=memory nats"`

	// Topic is the subject changes are published on.
	Topic string `koanf:"topic" validate:"required"`

	// URL of the NATS server when Backend is "nats".
	URL string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server on EmbeddedPort.
	EmbeddedServer bool   `koanf:"embedded_server"`
	EmbeddedHost   string `koanf:"embedded_host"`
	EmbeddedPort   int    `koanf:"embedded_port" validate:"min=0,max=65535"`

	// BufferSize of the in-memory backend's per-subscriber channel.
	BufferSize int64 `koanf:"buffer_size" validate:"min=0"`

	// PublishTimeout bounds one publish, including circuit-breaker wait.
	PublishTimeout time.Duration `koanf:"publish_timeout" validate:"gt=0"`

	// Circuit breaker around publishes.
	BreakerMaxRequests   uint32        `koanf:"breaker_max_requests"`
	BreakerInterval      time.Duration `koanf:"breaker_interval"`
	BreakerTimeout       time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
	BreakerFailureThresh uint32        `koanf:"breaker_failure_threshold" validate:"min=1"`
}

// SecurityConfig holds CORS and HTTP rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`

	// Format is json or console.
	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
