// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package roomhub

import (
	"context"
	"errors"
	"io"
	"strings"
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

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		MaxMessageSize: 4096,
		SendBuffer:     16,
		CommandRate:    100,
		CommandBurst:   100,
	}
}

// setupHub starts a hub that is stopped when the test ends.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testServerConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	waitFor(t, "hub running", hub.Running)
	return hub
}

// createTestClient creates a client without a network connection.
func createTestClient(hub *Hub) *Client {
	return NewClient(hub, nil)
}

func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
}

func joinRoom(t *testing.T, hub *Hub, client *Client, dashboardID string) {
	t.Helper()
	hub.commands <- command{client: client, kind: models.CommandJoinDashboard, dashboardID: dashboardID}
	frame := expectFrame(t, client)
	want := `{"type":"joined","data":{"dashboard_id":"` + dashboardID + `"}}`
	if string(frame) != want {
		t.Fatalf("join reply = %s, want %s", frame, want)
	}
}

func expectFrame(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case frame, ok := <-client.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func expectNoFrame(t *testing.T, client *Client) {
	t.Helper()
	select {
	case frame := <-client.send:
		t.Fatalf("unexpected frame %s", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func widgetEnvelope(t *testing.T, dashboardID, widgetID string) models.Envelope {
	t.Helper()
	event := models.WidgetAdded{Widget: models.Widget{ID: widgetID, Type: "chart"}}.Scoped(dashboardID)
	env, err := models.ChangeEnvelope(event)
	if err != nil {
		t.Fatalf("ChangeEnvelope: %v", err)
	}
	return env
}

func TestNewHub(t *testing.T) {
	hub := NewHub(testServerConfig())

	checks := []struct {
		name   string
		check  bool
		errMsg string
	}{
		{"clients map", hub.clients != nil, "clients map not initialized"},
		{"rooms map", hub.rooms != nil, "rooms map not initialized"},
		{"broadcast channel", hub.broadcast != nil, "broadcast channel not initialized"},
		{"Register channel", hub.Register != nil, "Register channel not initialized"},
		{"Unregister channel", hub.Unregister != nil, "Unregister channel not initialized"},
		{"not running", !hub.Running(), "hub should not report running before RunWithContext"},
	}

	for _, c := range checks {
		if !c.check {
			t.Error(c.errMsg)
		}
	}
}

func TestHub_JoinRepliesAndCountsMembers(t *testing.T) {
	hub := setupHub(t)
	a, b := createTestClient(hub), createTestClient(hub)
	registerClient(hub, a)
	registerClient(hub, b)

	joinRoom(t, hub, a, "dash-1")
	joinRoom(t, hub, b, "dash-1")

	if got := hub.MemberCount("dash-1"); got != 2 {
		t.Errorf("MemberCount = %d, want 2", got)
	}
	if got := hub.RoomCount(); got != 1 {
		t.Errorf("RoomCount = %d, want 1", got)
	}
	if got := hub.ClientCount(); got != 2 {
		t.Errorf("ClientCount = %d, want 2", got)
	}
}

func TestHub_BroadcastReachesOnlyRoomMembers(t *testing.T) {
	hub := setupHub(t)
	inRoom, otherRoom, noRoom := createTestClient(hub), createTestClient(hub), createTestClient(hub)
	for _, c := range []*Client{inRoom, otherRoom, noRoom} {
		registerClient(hub, c)
	}
	joinRoom(t, hub, inRoom, "dash-1")
	joinRoom(t, hub, otherRoom, "dash-2")

	if err := hub.BroadcastToRoom(context.Background(), "dash-1", widgetEnvelope(t, "dash-1", "w1")); err != nil {
		t.Fatalf("BroadcastToRoom: %v", err)
	}

	frame := expectFrame(t, inRoom)
	want := `{"type":"widget:added","data":{"dashboard_id":"dash-1","widget":{"id":"w1","type":"chart"}}}`
	if string(frame) != want {
		t.Errorf("frame = %s, want %s", frame, want)
	}
	expectNoFrame(t, otherRoom)
	expectNoFrame(t, noRoom)
}

func TestHub_LeaveAndEmptyRoomRemoval(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)
	joinRoom(t, hub, client, "dash-1")

	hub.commands <- command{client: client, kind: models.CommandLeaveDashboard, dashboardID: "dash-1"}
	waitFor(t, "room removed", func() bool { return hub.RoomCount() == 0 })

	if err := hub.BroadcastToRoom(context.Background(), "dash-1", widgetEnvelope(t, "dash-1", "w1")); err != nil {
		t.Fatalf("BroadcastToRoom: %v", err)
	}
	expectNoFrame(t, client)

	// Leaving a room the client is not in is harmless.
	hub.commands <- command{client: client, kind: models.CommandLeaveDashboard, dashboardID: "dash-9"}
	waitFor(t, "client still registered", func() bool { return hub.ClientCount() == 1 })
}

func TestHub_ClientInSeveralRooms(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)
	joinRoom(t, hub, client, "dash-1")
	joinRoom(t, hub, client, "dash-2")

	stats := hub.Rooms()
	want := []models.RoomStats{{DashboardID: "dash-1", Members: 1}, {DashboardID: "dash-2", Members: 1}}
	if len(stats) != len(want) {
		t.Fatalf("Rooms() = %+v, want %+v", stats, want)
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Errorf("Rooms()[%d] = %+v, want %+v", i, stats[i], want[i])
		}
	}
}

func TestHub_UnregisterRemovesFromAllRooms(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)
	joinRoom(t, hub, client, "dash-1")
	joinRoom(t, hub, client, "dash-2")

	hub.Unregister <- client
	waitFor(t, "client removed", func() bool { return hub.ClientCount() == 0 })

	if hub.RoomCount() != 0 {
		t.Errorf("RoomCount = %d, want 0", hub.RoomCount())
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed after unregister")
	}

	// A second unregister is a no-op rather than a double close.
	hub.Unregister <- client
}

func TestHub_JoinAfterUnregisterIgnored(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)
	hub.Unregister <- client

	hub.commands <- command{client: client, kind: models.CommandJoinDashboard, dashboardID: "dash-1"}
	time.Sleep(20 * time.Millisecond)
	if hub.RoomCount() != 0 {
		t.Errorf("RoomCount = %d, want 0", hub.RoomCount())
	}
}

func TestHub_SlowMemberDisconnected(t *testing.T) {
	hub := setupHub(t)
	slow := createTestClient(hub)
	fast := createTestClient(hub)
	registerClient(hub, slow)
	registerClient(hub, fast)
	joinRoom(t, hub, slow, "dash-1")
	joinRoom(t, hub, fast, "dash-1")

	// Fill the slow client's queue.
	for len(slow.send) < cap(slow.send) {
		slow.send <- []byte(`{}`)
	}

	if err := hub.BroadcastToRoom(context.Background(), "dash-1", widgetEnvelope(t, "dash-1", "w1")); err != nil {
		t.Fatalf("BroadcastToRoom: %v", err)
	}

	expectFrame(t, fast)
	waitFor(t, "slow client removed", func() bool { return hub.ClientCount() == 1 })
	if got := hub.MemberCount("dash-1"); got != 1 {
		t.Errorf("MemberCount = %d, want 1", got)
	}
}

func TestHub_BroadcastPreservesOrder(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)
	joinRoom(t, hub, client, "dash-1")

	ids := []string{"w1", "w2", "w3", "w4"}
	for _, id := range ids {
		if err := hub.BroadcastToRoom(context.Background(), "dash-1", widgetEnvelope(t, "dash-1", id)); err != nil {
			t.Fatalf("BroadcastToRoom: %v", err)
		}
	}
	for _, id := range ids {
		frame := string(expectFrame(t, client))
		want := `"id":"` + id + `"`
		if !strings.Contains(frame, want) {
			t.Errorf("frame %s does not contain %s", frame, want)
		}
	}
}

func TestHub_BroadcastToRoomErrors(t *testing.T) {
	hub := NewHub(testServerConfig())

	if err := hub.BroadcastToRoom(context.Background(), "", models.Envelope{Type: "x"}); !errors.Is(err, ErrEmptyRoom) {
		t.Errorf("empty room error = %v, want ErrEmptyRoom", err)
	}

	// Hub not running: fill the queue and expect the context to bound the wait.
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.broadcast <- roomMessage{dashboardID: "dash-1"}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := hub.BroadcastToRoom(ctx, "dash-1", widgetEnvelope(t, "dash-1", "w1")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("full queue error = %v, want context.DeadlineExceeded", err)
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub(testServerConfig())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()
	waitFor(t, "hub running", hub.Running)

	client := createTestClient(hub)
	registerClient(hub, client)
	joinRoom(t, hub, client, "dash-1")

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed on shutdown")
	}
	if hub.ClientCount() != 0 || hub.RoomCount() != 0 {
		t.Errorf("state not cleared: clients=%d rooms=%d", hub.ClientCount(), hub.RoomCount())
	}
	if hub.Running() {
		t.Error("Running() should be false after shutdown")
	}
}

func TestHub_DoneBeforeFirstRun(t *testing.T) {
	hub := NewHub(testServerConfig())
	select {
	case <-hub.Done():
	default:
		t.Error("Done() should be closed before the hub runs")
	}
}

func TestClient_HubSendsGiveUpAfterShutdown(t *testing.T) {
	hub := NewHub(testServerConfig())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()
	waitFor(t, "hub running", hub.Running)

	client := createTestClient(hub)
	registerClient(hub, client)

	cancel()
	<-errCh

	// Register and Unregister are unbuffered and nobody reads them any more.
	sends := map[string]func() bool{
		"unregister": func() bool { return toHub(client, hub.Unregister, client) },
		"register":   func() bool { return toHub(client, hub.Register, createTestClient(hub)) },
	}
	for name, send := range sends {
		t.Run(name, func(t *testing.T) {
			result := make(chan bool, 1)
			go func() { result <- send() }()
			select {
			case delivered := <-result:
				if delivered {
					t.Error("send delivered to a stopped hub")
				}
			case <-time.After(time.Second):
				t.Fatal("send blocked on a stopped hub")
			}
		})
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()

	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled reason = %s", got)
	}
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline reason = %s", got)
	}
}
