// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/metrics"
	"github.com/tomtom215/dashsync/internal/models"
)

func logger() *zerolog.Logger {
	l := logging.WithComponent("realtime")
	return &l
}

// Client is a live dashboard synchronization client. Construct one per
// process in the composition root and pass it to the code that needs it.
type Client struct {
	cfg        config.ClientConfig
	dialer     Dialer
	newBackOff func() backoff.BackOff

	rooms      *roomCoordinator
	dispatcher *dispatcher

	// mu guards everything below. Never held while calling into rooms or
	// handlers.
	mu      sync.Mutex
	fsm     *lifecycle
	session *session
	cancel  context.CancelFunc
	closed  bool

	wg sync.WaitGroup
}

// Option customizes a Client.
type Option func(*Client)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithBackOff replaces the reconnect delay policy. The factory is called once
// per connection run.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = factory
	}
}

// New validates cfg and builds a disconnected client.
func New(cfg config.ClientConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	c := &Client{
		cfg: cfg,
		fsm: newLifecycle(cfg.MaxReconnectAttempts),
	}
	c.dialer = NewWebSocketDialer(cfg)
	c.newBackOff = func() backoff.BackOff { return newReconnectBackOff(cfg) }
	c.rooms = newRoomCoordinator(c)
	c.dispatcher = newDispatcher(c.rooms)

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect starts connecting in the background. It is a no-op while
// connecting or connected. After the retry budget is exhausted, calling
// Connect again starts over with a fresh budget. Outcomes are reported only
// through OnConnectionChange.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		logger().Warn().Msg("Connect called on closed client")
		return
	}
	tr := c.fsm.apply(0, sigConnectRequested)
	if !tr.dial {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	gen := c.fsm.generation
	c.wg.Add(1)
	c.mu.Unlock()

	c.record(tr, nil)
	go c.run(ctx, gen)
}

// Disconnect closes the connection, clears room membership and stops any
// reconnect attempts. OnConnectionChange(false) fires if the client was
// connected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	tr := c.fsm.apply(0, sigDisconnectRequested)
	cancel := c.cancel
	c.cancel = nil
	sess := c.session
	c.session = nil
	c.mu.Unlock()

	// Membership is cleared only once the state is Disconnected, so a
	// concurrent JoinRoom is either rejected or wiped here.
	c.rooms.reset()

	if cancel != nil {
		cancel()
	}
	if sess != nil {
		sess.close()
	}

	c.record(tr, nil)
	c.announce(tr)
}

// Close disconnects and waits for the connection goroutines to exit. Do not
// call it from a handler.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.Disconnect()
	c.wg.Wait()
	return nil
}

// JoinRoom joins the dashboard room, leaving the current one first. Calls
// while not connected are rejected with a warning; joining the held room is
// a no-op.
func (c *Client) JoinRoom(dashboardID string) {
	c.rooms.join(dashboardID)
}

// LeaveRoom leaves the current room, if any.
func (c *Client) LeaveRoom() {
	c.rooms.leave()
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	return c.isConnected()
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.state
}

// RetryExhausted reports whether the client gave up reconnecting. It stays
// true until the next Connect or Disconnect.
func (c *Client) RetryExhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.exhausted
}

// CurrentRoom returns the held room ID, or "" when in no room.
func (c *Client) CurrentRoom() string {
	return c.rooms.room()
}

// RoomConfirmed reports whether the hub acknowledged the current room.
func (c *Client) RoomConfirmed() bool {
	return c.rooms.isConfirmed()
}

// OnWidgetAdded sets the widget:added handler, replacing any previous one.
func (c *Client) OnWidgetAdded(fn func(models.Widget)) {
	c.dispatcher.register(func(h *handlers) { h.widgetAdded = fn })
}

// OnWidgetUpdated sets the widget:updated handler, replacing any previous one.
func (c *Client) OnWidgetUpdated(fn func(models.Widget)) {
	c.dispatcher.register(func(h *handlers) { h.widgetUpdated = fn })
}

// OnWidgetDeleted sets the widget:deleted handler, replacing any previous one.
func (c *Client) OnWidgetDeleted(fn func(widgetID string)) {
	c.dispatcher.register(func(h *handlers) { h.widgetDeleted = fn })
}

// OnPositionsUpdated sets the positions:updated handler, replacing any
// previous one.
func (c *Client) OnPositionsUpdated(fn func(models.PositionMap)) {
	c.dispatcher.register(func(h *handlers) { h.positionsUpdated = fn })
}

// OnConnectionChange sets the connection-state handler, replacing any
// previous one. It receives true on every successful (re)connection and false
// on a drop, on retry exhaustion and on Disconnect from a live connection.
func (c *Client) OnConnectionChange(fn func(connected bool)) {
	c.dispatcher.register(func(h *handlers) { h.connectionChange = fn })
}

func (c *Client) isConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.state == Connected && c.session != nil
}

// sendCommand queues a room command on the live session.
func (c *Client) sendCommand(commandType, dashboardID string) bool {
	frame, err := models.EncodeEnvelope(commandType, models.RoomRequest{DashboardID: dashboardID})
	if err != nil {
		logger().Error().Err(err).Str("type", commandType).Msg("Failed to encode command")
		return false
	}

	c.mu.Lock()
	sess := c.session
	live := c.fsm.state == Connected && sess != nil
	c.mu.Unlock()

	if !live {
		metrics.RecordClientCommandRejected("disconnected")
		return false
	}
	if !sess.enqueue(frame) {
		metrics.RecordClientCommandRejected("queue_full")
		logger().Warn().Str("type", commandType).Msg("Outbound queue full, dropping command")
		return false
	}
	metrics.RecordClientCommand(commandType)
	logger().Debug().Str("type", commandType).Str("dashboard_id", logging.Sanitize(dashboardID)).Msg("Command queued")
	return true
}
