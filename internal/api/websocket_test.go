// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/roomhub"
)

// TestRouter_WebSocketUpgradeThroughMiddleware dials /ws through the full
// SetupChi middleware chain, so every wrapper must pass the hijack through.
func TestRouter_WebSocketUpgradeThroughMiddleware(t *testing.T) {
	hub := roomhub.NewHub(config.ServerConfig{MaxMessageSize: 4096, SendBuffer: 16, CommandRate: 100, CommandBurst: 100})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !hub.Running() {
		if time.Now().After(deadline) {
			t.Fatal("hub never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	origins := []string{"https://dash.example"}
	h := NewHandler(Dependencies{
		Rooms:     hub,
		Publisher: &fakePublisher{},
		WebSocket: roomhub.ServeWS(hub, origins),
	})
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: origins,
		CORSAllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		CORSAllowedHeaders: []string{"Content-Type"},
		RateLimitDisabled:  true,
	})
	srv := httptest.NewServer(NewRouter(h, mw).SetupChi())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": origins})
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial /ws: %v (status %d)", err, status)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join_dashboard","data":{"dashboard_id":"dash-1"}}`)); err != nil {
		t.Fatalf("write join: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read joined: %v", err)
	}
	if want := `{"type":"joined","data":{"dashboard_id":"dash-1"}}`; string(frame) != want {
		t.Errorf("joined frame = %s, want %s", frame, want)
	}
	if got := hub.MemberCount("dash-1"); got != 1 {
		t.Errorf("MemberCount(dash-1) = %d, want 1", got)
	}
}
