// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package realtime

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "debug",
		Format: "console",
		Output: io.Discard,
	})
}

const waitTimeout = 2 * time.Second

var errDialRefused = errors.New("connection refused")

// fakeConn is an in-memory Conn. Tests push server frames with deliver and
// read client frames with nextWrite.
type fakeConn struct {
	inbound   chan []byte
	writes    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 64),
		writes:  make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.writes <- data
	return nil
}

func (c *fakeConn) Ping() error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
		return nil
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// drop simulates the server closing the connection.
func (c *fakeConn) drop() {
	_ = c.Close()
}

func (c *fakeConn) deliver(t *testing.T, msgType string, data any) {
	t.Helper()
	frame, err := models.EncodeEnvelope(msgType, data)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	c.inbound <- frame
}

// nextWrite waits for the next client frame and decodes it as a room command.
func (c *fakeConn) nextWrite(t *testing.T) (string, string) {
	t.Helper()
	select {
	case frame := <-c.writes:
		var env models.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("client wrote invalid frame %q: %v", frame, err)
		}
		var req models.RoomRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			t.Fatalf("client wrote invalid command payload %q: %v", env.Data, err)
		}
		return env.Type, req.DashboardID
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for client frame")
		return "", ""
	}
}

func (c *fakeConn) expectCommand(t *testing.T, wantType, wantRoom string) {
	t.Helper()
	gotType, gotRoom := c.nextWrite(t)
	if gotType != wantType || gotRoom != wantRoom {
		t.Fatalf("command = %s{%s}, want %s{%s}", gotType, gotRoom, wantType, wantRoom)
	}
}

// expectNoWrite asserts the client stays silent for a short while.
func (c *fakeConn) expectNoWrite(t *testing.T) {
	t.Helper()
	select {
	case frame := <-c.writes:
		t.Fatalf("unexpected client frame %s", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

// fakeDialer hands out fakeConns. fail decides, per zero-based dial number,
// whether that dial is refused.
type fakeDialer struct {
	mu    sync.Mutex
	dials int
	fail  func(n int) bool
	conns chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(chan *fakeConn, 16)}
}

func (d *fakeDialer) Dial(ctx context.Context, _ string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	n := d.dials
	d.dials++
	fail := d.fail
	d.mu.Unlock()

	if fail != nil && fail(n) {
		return nil, errDialRefused
	}
	conn := newFakeConn()
	d.conns <- conn
	return conn, nil
}

func (d *fakeDialer) setFail(fail func(n int) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fail
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) nextConn(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case conn := <-d.conns:
		return conn
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for dial")
		return nil
	}
}

// connectionLog records OnConnectionChange calls.
type connectionLog struct {
	mu     sync.Mutex
	events []bool
	ch     chan bool
}

func newConnectionLog(c *Client) *connectionLog {
	l := &connectionLog{ch: make(chan bool, 32)}
	c.OnConnectionChange(func(connected bool) {
		l.mu.Lock()
		l.events = append(l.events, connected)
		l.mu.Unlock()
		l.ch <- connected
	})
	return l
}

func (l *connectionLog) expect(t *testing.T, want bool) {
	t.Helper()
	select {
	case got := <-l.ch:
		if got != want {
			t.Fatalf("OnConnectionChange(%v), want %v", got, want)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for OnConnectionChange(%v)", want)
	}
}

func (l *connectionLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func testClientConfig() config.ClientConfig {
	cfg := config.DefaultClientConfig()
	cfg.MaxReconnectAttempts = 3
	cfg.ReconnectJitter = 0
	return cfg
}

// newTestClient builds a client on a fake dialer with no reconnect delay.
func newTestClient(t *testing.T, cfg config.ClientConfig) (*Client, *fakeDialer) {
	t.Helper()
	dialer := newFakeDialer()
	client, err := New(cfg,
		WithDialer(dialer),
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, dialer
}

// connectClient connects and waits until the client reports connected.
func connectClient(t *testing.T, client *Client, dialer *fakeDialer, log *connectionLog) *fakeConn {
	t.Helper()
	client.Connect()
	conn := dialer.nextConn(t)
	log.expect(t, true)
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
