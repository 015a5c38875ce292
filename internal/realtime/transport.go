// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/logging"
)

// Dialer opens a connection to a room hub.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Conn is one open connection. ReadMessage is called from a single goroutine;
// WriteMessage and Ping from another. Close may be called from any goroutine
// and must unblock a pending ReadMessage.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Ping() error
	Close() error
}

// WebSocketDialer dials room hubs with gorilla/websocket.
type WebSocketDialer struct {
	dialer         websocket.Dialer
	pongWait       time.Duration
	writeWait      time.Duration
	maxMessageSize int64
}

// NewWebSocketDialer builds a dialer from client timeouts and limits.
func NewWebSocketDialer(cfg config.ClientConfig) *WebSocketDialer {
	return &WebSocketDialer{
		dialer: websocket.Dialer{
			HandshakeTimeout:  cfg.HandshakeTimeout,
			EnableCompression: true,
		},
		pongWait:       cfg.PongWait,
		writeWait:      cfg.WriteWait,
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// Dial opens a WebSocket and arms the read deadline. Every pong and every
// inbound frame pushes the deadline out by pongWait.
func (d *WebSocketDialer) Dial(ctx context.Context, rawURL string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, rawURL, originHeader(rawURL))
	if resp != nil && resp.Body != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Debug().Err(cerr).Msg("Failed to close handshake response body")
		}
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	wc := &wsConn{conn: conn, pongWait: d.pongWait, writeWait: d.writeWait}
	if d.maxMessageSize > 0 {
		conn.SetReadLimit(d.maxMessageSize)
	}
	if err := wc.extendReadDeadline(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return wc.extendReadDeadline()
	})
	return wc, nil
}

// originHeader derives an Origin from the hub URL. Hubs reject upgrades
// without one.
func originHeader(rawURL string) http.Header {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}
	scheme := "http"
	if u.Scheme == "wss" || u.Scheme == "https" {
		scheme = "https"
	}
	return http.Header{"Origin": []string{scheme + "://" + u.Host}}
}

type wsConn struct {
	conn      *websocket.Conn
	pongWait  time.Duration
	writeWait time.Duration
}

func (c *wsConn) extendReadDeadline() error {
	if c.pongWait <= 0 {
		return nil
	}
	return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if err := c.extendReadDeadline(); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *wsConn) WriteMessage(data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeWait))
}

// Close sends a normal-closure frame and closes the socket.
func (c *wsConn) Close() error {
	if err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	); err != nil {
		logging.Debug().Err(err).Msg("Failed to send close message")
	}
	return c.conn.Close()
}

// isNormalClose reports whether err is an orderly close from the server.
func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
