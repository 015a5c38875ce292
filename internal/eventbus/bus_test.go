// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/dashsync/internal/models"
)

func TestNew_MemoryBackend(t *testing.T) {
	bus, err := New(testBusConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if bus.Backend() != BackendMemory {
		t.Errorf("Backend() = %q, want %q", bus.Backend(), BackendMemory)
	}
	if bus.Topic() != "dashboard.changes.test" {
		t.Errorf("Topic() = %q", bus.Topic())
	}
	if !bus.Healthy() {
		t.Error("new bus should be healthy")
	}

	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if bus.Healthy() {
		t.Error("closed bus should not be healthy")
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := testBusConfig()
	cfg.Backend = "kafka"

	if _, err := New(cfg, nil); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("New error = %v, want ErrUnknownBackend", err)
	}
}

func TestMemoryBus_EndToEnd(t *testing.T) {
	bus, err := New(testBusConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	hub := &recordingHub{}
	startForwarder(t, bus, hub)
	pub := NewPublisher(bus.Publisher(), testBusConfig())

	if _, err := pub.PublishChange(context.Background(), widgetNotice(t, "dash-1", "w1")); err != nil {
		t.Fatalf("PublishChange: %v", err)
	}

	waitFor(t, "change forwarded", func() bool { return len(hub.snapshot()) == 1 })
	got := hub.snapshot()[0]
	if got.dashboardID != "dash-1" || got.env.Type != models.EventWidgetAdded {
		t.Errorf("forwarded %+v", got)
	}
}

func TestNATSBus_EmbeddedServerEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	cfg := testBusConfig()
	cfg.Backend = BackendNATS
	cfg.EmbeddedServer = true
	cfg.EmbeddedHost = "127.0.0.1"
	cfg.EmbeddedPort = -1

	bus, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	if !bus.Healthy() {
		t.Fatal("bus with running embedded server should be healthy")
	}

	hub := &recordingHub{}
	startForwarder(t, bus, hub)
	pub := NewPublisher(bus.Publisher(), cfg)

	// Core NATS drops messages published before the subscription is
	// registered on the server, so publish until one gets through.
	waitFor(t, "change forwarded over NATS", func() bool {
		if len(hub.snapshot()) > 0 {
			return true
		}
		if _, err := pub.PublishChange(context.Background(), widgetNotice(t, "dash-1", "w1")); err != nil {
			t.Fatalf("PublishChange: %v", err)
		}
		return false
	})

	got := hub.snapshot()[0]
	if got.dashboardID != "dash-1" || got.env.Type != models.EventWidgetAdded {
		t.Errorf("forwarded %+v", got)
	}
}

func TestEmbeddedServer_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	srv, err := NewEmbeddedServer("127.0.0.1", -1)
	if err != nil {
		t.Fatalf("NewEmbeddedServer: %v", err)
	}
	if !srv.IsRunning() {
		t.Error("server should be running")
	}
	if srv.ClientURL() == "" {
		t.Error("ClientURL should not be empty")
	}

	srv.Shutdown()
	if srv.IsRunning() {
		t.Error("server should not be running after Shutdown")
	}
}
