// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

/*
Package metrics defines the Prometheus instrumentation for DashSync.

All collectors are registered on the default registry through promauto and are
exposed by the API router at /metrics.

Realtime client:

  - dashsync_client_connection_state: 0=disconnected, 1=connecting, 2=connected
  - dashsync_client_connect_attempts_total{result}: success, failure, exhausted
  - dashsync_client_reconnects_total: successful connections after a drop
  - dashsync_client_events_received_total{type}
  - dashsync_client_events_dropped_total{reason}: no_handler, room_mismatch, decode_error, unknown_type
  - dashsync_client_commands_sent_total{type}
  - dashsync_client_commands_rejected_total{reason}: disconnected, queue_full

Room hub:

  - websocket_connections, websocket_messages_sent_total, websocket_messages_received_total
  - websocket_errors_total{error_type}
  - dashsync_hub_rooms, dashsync_hub_room_members
  - dashsync_hub_room_broadcasts_total, dashsync_hub_commands_total{type,result}

Change-event bus and API:

  - dashsync_bus_publish_total{result}, dashsync_bus_forwarded_total{result}
  - circuit_breaker_state{name}, circuit_breaker_transitions_total{name,from,to}
  - api_requests_total{method,endpoint,status}, api_request_duration_seconds{method,endpoint}

Record* helpers keep label values consistent between call sites.
*/
package metrics
