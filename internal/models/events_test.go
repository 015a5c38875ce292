// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package models

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
)

func TestDecodeChangeEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		eventType string
		data      string
		wantErr   error
		check     func(t *testing.T, e ChangeEvent)
	}{
		{
			name:      "widget added",
			eventType: EventWidgetAdded,
			data:      `{"widget":{"id":"w1","type":"chart","title":"CVE trend","config":{"query":"severity:high"}}}`,
			check: func(t *testing.T, e ChangeEvent) {
				added, ok := e.(WidgetAdded)
				if !ok {
					t.Fatalf("expected WidgetAdded, got %T", e)
				}
				if added.Widget.ID != "w1" || added.Widget.Type != "chart" {
					t.Errorf("unexpected widget: %+v", added.Widget)
				}
				if string(added.Widget.Config) != `{"query":"severity:high"}` {
					t.Errorf("config not preserved: %s", added.Widget.Config)
				}
			},
		},
		{
			name:      "widget updated with scope",
			eventType: EventWidgetUpdated,
			data:      `{"dashboard_id":"dash-1","widget":{"id":"w2","type":"table"}}`,
			check: func(t *testing.T, e ChangeEvent) {
				if e.Room() != "dash-1" {
					t.Errorf("expected room dash-1, got %q", e.Room())
				}
				if e.Kind() != EventWidgetUpdated {
					t.Errorf("unexpected kind %q", e.Kind())
				}
			},
		},
		{
			name:      "widget deleted",
			eventType: EventWidgetDeleted,
			data:      `{"widget_id":"w3"}`,
			check: func(t *testing.T, e ChangeEvent) {
				if e.(WidgetDeleted).WidgetID != "w3" {
					t.Errorf("unexpected widget id: %+v", e)
				}
			},
		},
		{
			name:      "positions updated",
			eventType: EventPositionsUpdated,
			data:      `{"positions":{"w1":{"x":0,"y":0,"w":6,"h":4}}}`,
			check: func(t *testing.T, e ChangeEvent) {
				got := e.(PositionsUpdated).Positions
				want := Position{X: 0, Y: 0, W: 6, H: 4}
				if len(got) != 1 || got["w1"] != want {
					t.Errorf("expected %v, got %v", want, got)
				}
			},
		},
		{name: "unknown type", eventType: "widget:moved", data: `{}`, wantErr: ErrUnknownEventType},
		{name: "joined is not a change", eventType: EventJoined, data: `{"dashboard_id":"x"}`, wantErr: ErrUnknownEventType},
		{name: "malformed json", eventType: EventWidgetAdded, data: `{"widget":`, wantErr: ErrInvalidPayload},
		{name: "missing widget id", eventType: EventWidgetUpdated, data: `{"widget":{"type":"chart"}}`, wantErr: ErrInvalidPayload},
		{name: "missing widget_id", eventType: EventWidgetDeleted, data: `{}`, wantErr: ErrInvalidPayload},
		{name: "missing positions", eventType: EventPositionsUpdated, data: `{}`, wantErr: ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			event, err := DecodeChangeEvent(tt.eventType, []byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, event)
		})
	}
}

func TestIsChangeEventType(t *testing.T) {
	t.Parallel()

	for _, eventType := range ChangeEventTypes {
		if !IsChangeEventType(eventType) {
			t.Errorf("%q should be a change event", eventType)
		}
	}
	for _, eventType := range []string{EventJoined, CommandJoinDashboard, CommandLeaveDashboard, ""} {
		if IsChangeEventType(eventType) {
			t.Errorf("%q should not be a change event", eventType)
		}
	}
}

func TestNewChangeNotice_StampsDashboard(t *testing.T) {
	t.Parallel()

	notice, err := NewChangeNotice("dash-42", WidgetDeleted{WidgetID: "w9"})
	if err != nil {
		t.Fatalf("NewChangeNotice: %v", err)
	}
	if notice.Type != EventWidgetDeleted || notice.DashboardID != "dash-42" {
		t.Fatalf("unexpected notice: %+v", notice)
	}

	event, err := DecodeChangeEvent(notice.Type, notice.Data)
	if err != nil {
		t.Fatalf("decode notice data: %v", err)
	}
	if event.Room() != "dash-42" {
		t.Errorf("expected scoped event, got room %q", event.Room())
	}
}

func TestEncodeEnvelope(t *testing.T) {
	t.Parallel()

	frame, err := EncodeEnvelope(CommandJoinDashboard, RoomRequest{DashboardID: "dash-1"})
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}
	if string(frame) != `{"type":"join_dashboard","data":{"dashboard_id":"dash-1"}}` {
		t.Errorf("unexpected frame: %s", frame)
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != CommandJoinDashboard {
		t.Errorf("unexpected type %q", env.Type)
	}

	bare, err := EncodeEnvelope("ping", nil)
	if err != nil {
		t.Fatalf("EncodeEnvelope(nil): %v", err)
	}
	if string(bare) != `{"type":"ping"}` {
		t.Errorf("unexpected bare frame: %s", bare)
	}
}
