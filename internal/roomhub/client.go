// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package roomhub

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/metrics"
	"github.com/tomtom215/dashsync/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// clientIDCounter orders clients for deterministic broadcast iteration.
var clientIDCounter atomic.Uint64

// Client is one WebSocket connection to the hub.
type Client struct {
	id      uint64
	connID  string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	// hubDone is the Done channel of the hub run this client belongs to.
	hubDone <-chan struct{}
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	buffer := hub.cfg.SendBuffer
	if buffer <= 0 {
		buffer = 256
	}
	burst := hub.cfg.CommandBurst
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if hub.cfg.CommandRate > 0 {
		limit = rate.Limit(hub.cfg.CommandRate)
	}

	return &Client{
		id:      clientIDCounter.Add(1),
		connID:  uuid.NewString(),
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, buffer),
		limiter: rate.NewLimiter(limit, burst),
		hubDone: hub.Done(),
	}
}

// toHub sends on a hub channel unless the hub run has stopped. It reports
// whether the value was delivered.
func toHub[T any](c *Client, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-c.hubDone:
		return false
	}
}

// ID returns the client's connection identifier.
func (c *Client) ID() string {
	return c.connID
}

// readPump decodes commands from the connection and hands them to the hub.
func (c *Client) readPump() {
	defer func() {
		toHub(c, c.hub.Unregister, c)
		if err := c.conn.Close(); err != nil {
			logging.Debug().Err(err).Str("conn_id", c.connID).Msg("error closing websocket connection")
		}
	}()

	maxMessageSize := c.hub.cfg.MaxMessageSize
	if maxMessageSize <= 0 {
		maxMessageSize = 4096
	}
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Debug().Err(err).Msg("failed to set read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Str("conn_id", c.connID).Msg("websocket read error")
				metrics.WSErrors.WithLabelValues("read").Inc()
			}
			break
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logging.Debug().Err(err).Msg("failed to extend read deadline")
		}
		metrics.WSMessagesReceived.Inc()

		cmd, ok := c.parseCommand(message)
		if !ok {
			continue
		}
		if !toHub(c, c.hub.commands, cmd) {
			return
		}
	}
}

// parseCommand decodes a join/leave frame. Anything else is logged and skipped.
func (c *Client) parseCommand(message []byte) (command, bool) {
	var env models.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		logging.Warn().Err(err).Str("conn_id", c.connID).Msg("ignoring malformed command")
		metrics.RecordHubCommand("unknown", "malformed")
		return command{}, false
	}

	switch env.Type {
	case models.CommandJoinDashboard, models.CommandLeaveDashboard:
	default:
		logging.Debug().Str("conn_id", c.connID).Str("type", logging.Sanitize(env.Type)).Msg("ignoring unknown command")
		metrics.RecordHubCommand("unknown", "unknown_type")
		return command{}, false
	}

	if !c.limiter.Allow() {
		logging.Warn().Str("conn_id", c.connID).Str("type", env.Type).Msg("command rate limit exceeded")
		metrics.RecordHubCommand(env.Type, "rate_limited")
		return command{}, false
	}

	var req models.RoomRequest
	if len(env.Data) == 0 || json.Unmarshal(env.Data, &req) != nil || req.DashboardID == "" {
		logging.Warn().Str("conn_id", c.connID).Str("type", env.Type).Msg("ignoring command without dashboard_id")
		metrics.RecordHubCommand(env.Type, "malformed")
		return command{}, false
	}

	metrics.RecordHubCommand(env.Type, "accepted")
	return command{client: c, kind: env.Type, dashboardID: req.DashboardID}, true
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			logging.Debug().Err(err).Str("conn_id", c.connID).Msg("error closing websocket connection")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Debug().Err(err).Msg("failed to set write deadline")
			}
			if !ok {
				// The hub closed the channel.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Debug().Err(err).Msg("failed to set write deadline for ping")
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start runs the client's read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
