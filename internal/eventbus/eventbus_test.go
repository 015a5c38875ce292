// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package eventbus

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func testBusConfig() config.BusConfig {
	return config.BusConfig{
		Backend:              BackendMemory,
		Topic:                "dashboard.changes.test",
		BufferSize:           16,
		PublishTimeout:       time.Second,
		BreakerMaxRequests:   1,
		BreakerInterval:      time.Minute,
		BreakerTimeout:       time.Minute,
		BreakerFailureThresh: 3,
	}
}

type broadcast struct {
	dashboardID string
	env         models.Envelope
}

// recordingHub captures BroadcastToRoom calls.
type recordingHub struct {
	mu    sync.Mutex
	calls []broadcast
	err   error
}

func (h *recordingHub) BroadcastToRoom(_ context.Context, dashboardID string, env models.Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.calls = append(h.calls, broadcast{dashboardID: dashboardID, env: env})
	return nil
}

func (h *recordingHub) snapshot() []broadcast {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]broadcast(nil), h.calls...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// startForwarder runs a forwarder until the test ends and waits for its subscription.
func startForwarder(t *testing.T, bus *Bus, hub Broadcaster) (*Forwarder, <-chan error) {
	t.Helper()
	fwd := NewForwarder(bus.Subscriber(), bus.Topic(), hub)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- fwd.Serve(ctx) }()
	t.Cleanup(cancel)
	waitFor(t, "forwarder subscribed", fwd.Subscribed)
	return fwd, errCh
}

func widgetNotice(t *testing.T, dashboardID, widgetID string) *models.ChangeNotice {
	t.Helper()
	notice, err := models.NewChangeNotice(dashboardID, models.WidgetAdded{
		Widget: models.Widget{ID: widgetID, Type: "chart"},
	})
	if err != nil {
		t.Fatalf("NewChangeNotice: %v", err)
	}
	return notice
}
