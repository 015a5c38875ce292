// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Realtime Client Metrics
	ClientConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashsync_client_connection_state",
			Help: "Realtime client connection state (0=disconnected, 1=connecting, 2=connected)",
		},
	)

	ClientConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashsync_client_connect_attempts_total",
			Help: "Total number of realtime client connection attempts",
		},
		[]string{"result"}, // "success", "failure", "exhausted"
	)

	ClientReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashsync_client_reconnects_total",
			Help: "Total number of successful reconnections after a dropped connection",
		},
	)

	ClientEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashsync_client_events_received_total",
			Help: "Total number of server events received by the realtime client",
		},
		[]string{"type"},
	)

	ClientEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashsync_client_events_dropped_total",
			Help: "Total number of server events discarded by the realtime client",
		},
		[]string{"reason"}, // "no_handler", "room_mismatch", "decode_error", "unknown_type"
	)

	ClientCommandsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashsync_client_commands_sent_total",
			Help: "Total number of room commands queued by the realtime client",
		},
		[]string{"type"},
	)

	ClientCommandsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashsync_client_commands_rejected_total",
			Help: "Total number of room commands the realtime client refused to send",
		},
		[]string{"reason"}, // "disconnected", "queue_full"
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Room Hub Metrics
	HubRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashsync_hub_rooms",
			Help: "Current number of rooms with at least one member",
		},
	)

	HubRoomMembers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashsync_hub_room_members",
			Help: "Current number of room memberships across all rooms",
		},
	)

	HubRoomBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashsync_hub_room_broadcasts_total",
			Help: "Total number of change events fanned out to a room",
		},
	)

	HubCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashsync_hub_commands_total",
			Help: "Total number of client commands handled by the hub",
		},
		[]string{"type", "result"}, // result: "ok", "rate_limited", "invalid"
	)

	// Change-Event Bus Metrics
	BusPublish = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashsync_bus_publish_total",
			Help: "Total number of change notices published on the bus",
		},
		[]string{"result"}, // "success", "failure", "rejected"
	)

	BusForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashsync_bus_forwarded_total",
			Help: "Total number of change notices consumed from the bus",
		},
		[]string{"result"}, // "forwarded", "malformed", "hub_closed"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SetClientState records the realtime client state as its numeric value.
func SetClientState(state int) {
	ClientConnectionState.Set(float64(state))
}

// RecordConnectAttempt records the outcome of one dial.
func RecordConnectAttempt(result string) {
	ClientConnectAttempts.WithLabelValues(result).Inc()
}

// RecordClientEvent counts an inbound frame by type.
func RecordClientEvent(eventType string) {
	ClientEventsReceived.WithLabelValues(eventType).Inc()
}

// RecordClientDrop counts a discarded inbound frame.
func RecordClientDrop(reason string) {
	ClientEventsDropped.WithLabelValues(reason).Inc()
}

// RecordClientCommand counts an outbound room command.
func RecordClientCommand(commandType string) {
	ClientCommandsSent.WithLabelValues(commandType).Inc()
}

// RecordClientCommandRejected counts a room command that was not sent.
func RecordClientCommandRejected(reason string) {
	ClientCommandsRejected.WithLabelValues(reason).Inc()
}

// RecordHubCommand counts a command handled by the hub.
func RecordHubCommand(commandType, result string) {
	HubCommands.WithLabelValues(commandType, result).Inc()
}

// UpdateHubGauges sets the room and membership gauges.
func UpdateHubGauges(rooms, members int) {
	HubRooms.Set(float64(rooms))
	HubRoomMembers.Set(float64(members))
}

// RecordBusPublish counts a publish attempt by result.
func RecordBusPublish(result string) {
	BusPublish.WithLabelValues(result).Inc()
}

// RecordBusForward counts a consumed bus message by result.
func RecordBusForward(result string) {
	BusForwarded.WithLabelValues(result).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change. States use
// gobreaker's names: closed, half-open, open.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
