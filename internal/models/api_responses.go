// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Status is "success" with Data populated, or "error" with Error populated:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"},
//	  "error": {"code": "VALIDATION_ERROR", "message": "type is required"}
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata carries response timing for observability.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is a machine-readable error code plus a human message.
//
// Codes used by the API:
//   - VALIDATION_ERROR: malformed body or path parameter
//   - INVALID_EVENT: the change payload does not decode to its event kind
//   - PUBLISH_FAILED: the change-event bus rejected the publish
//   - SERVICE_UNAVAILABLE: the bus circuit breaker is open
//   - RATE_LIMIT_EXCEEDED: too many requests
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error codes returned in APIError.Code.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInvalidEvent       = "INVALID_EVENT"
	CodePublishFailed      = "PUBLISH_FAILED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
)

// PublishChangeRequest is the body of POST /api/v1/dashboards/{dashboardID}/events.
type PublishChangeRequest struct {
	Type string          `json:"type" validate:"required,oneof=widget:added widget:updated widget:deleted positions:updated"`
	Data json.RawMessage `json:"data" validate:"required"`
}

// PublishChangeResult acknowledges an accepted change.
type PublishChangeResult struct {
	DashboardID string `json:"dashboard_id"`
	Type        string `json:"type"`
	MessageID   string `json:"message_id"`
}

// RoomStats describes one live room on a hub instance.
type RoomStats struct {
	DashboardID string `json:"dashboard_id"`
	Members     int    `json:"members"`
}

// RoomList is the response of GET /api/v1/rooms.
type RoomList struct {
	Rooms       []RoomStats `json:"rooms"`
	Connections int         `json:"connections"`
}

// HealthStatus is the response of the health endpoints.
type HealthStatus struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components,omitempty"`
}
