// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package roomhub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/metrics"
)

// NewUpgrader creates a WebSocket upgrader that only accepts the given origins.
// "*" accepts any non-empty origin.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      originChecker(allowedOrigins),
		HandshakeTimeout: 10 * time.Second,
	}
}

func originChecker(allowedOrigins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Browsers always send Origin; an empty one would bypass CORS.
		if origin == "" {
			logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
			return false
		}

		for _, allowed := range allowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}

		logging.Warn().Str("origin", logging.Sanitize(origin)).Msg("WebSocket connection rejected from unauthorized origin")
		return false
	}
}

// ServeWS upgrades the request and registers the connection with the hub.
func ServeWS(hub *Hub, allowedOrigins []string) http.HandlerFunc {
	upgrader := NewUpgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		if !hub.Running() {
			http.Error(w, "room hub unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logging.Warn().Err(err).Msg("websocket upgrade failed")
			metrics.WSErrors.WithLabelValues("upgrade").Inc()
			return
		}

		client := NewClient(hub, conn)
		if !toHub(client, hub.Register, client) {
			_ = conn.Close()
			return
		}
		client.Start()
	}
}
