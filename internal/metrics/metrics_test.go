// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		statusCode string
	}{
		{"publish accepted", "POST", "/api/v1/dashboards/{dashboardID}/events", "202"},
		{"publish invalid", "POST", "/api/v1/dashboards/{dashboardID}/events", "400"},
		{"room list", "GET", "/api/v1/rooms", "200"},
		{"rate limited", "POST", "/api/v1/dashboards/{dashboardID}/events", "429"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.statusCode)
			before := testutil.ToFloat64(counter)
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, 5*time.Millisecond)
			if got := testutil.ToFloat64(counter); got != before+1 {
				t.Errorf("api_requests_total = %v, want %v", got, before+1)
			}
		})
	}
}

func TestClientMetrics(t *testing.T) {
	SetClientState(2)
	if got := testutil.ToFloat64(ClientConnectionState); got != 2 {
		t.Errorf("connection state = %v, want 2", got)
	}

	before := testutil.ToFloat64(ClientEventsDropped.WithLabelValues("room_mismatch"))
	RecordClientDrop("room_mismatch")
	if got := testutil.ToFloat64(ClientEventsDropped.WithLabelValues("room_mismatch")); got != before+1 {
		t.Errorf("dropped = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(ClientCommandsSent.WithLabelValues("join_dashboard"))
	RecordClientCommand("join_dashboard")
	RecordClientCommand("join_dashboard")
	if got := testutil.ToFloat64(ClientCommandsSent.WithLabelValues("join_dashboard")); got != before+2 {
		t.Errorf("commands sent = %v, want %v", got, before+2)
	}
}

func TestUpdateHubGauges(t *testing.T) {
	UpdateHubGauges(3, 7)
	if got := testutil.ToFloat64(HubRooms); got != 3 {
		t.Errorf("rooms = %v, want 3", got)
	}
	if got := testutil.ToFloat64(HubRoomMembers); got != 7 {
		t.Errorf("members = %v, want 7", got)
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     float64
	}{
		{"closed", "open", 2},
		{"open", "half-open", 1},
		{"half-open", "closed", 0},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			RecordCircuitBreakerTransition("test-bus", tt.from, tt.to)
			if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-bus")); got != tt.want {
				t.Errorf("state = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	counter := BusPublish.WithLabelValues("success")
	before := testutil.ToFloat64(counter)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordBusPublish("success")
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(counter); got != before+50 {
		t.Errorf("publish total = %v, want %v", got, before+50)
	}
}
