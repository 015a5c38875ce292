// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package models

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Client-to-server commands.
const (
	CommandJoinDashboard  = "join_dashboard"
	CommandLeaveDashboard = "leave_dashboard"
)

// Server-to-client events.
const (
	EventJoined           = "joined"
	EventWidgetAdded      = "widget:added"
	EventWidgetUpdated    = "widget:updated"
	EventWidgetDeleted    = "widget:deleted"
	EventPositionsUpdated = "positions:updated"
)

// ChangeEventTypes lists every change-event kind in the order handlers are documented.
var ChangeEventTypes = []string{
	EventWidgetAdded,
	EventWidgetUpdated,
	EventWidgetDeleted,
	EventPositionsUpdated,
}

var (
	// ErrUnknownEventType is returned when a frame names no known change event.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrInvalidPayload is returned when a change payload is missing required fields.
	ErrInvalidPayload = errors.New("invalid event payload")
)

// Envelope is the single frame shape on the wire, in both directions:
//
//	{"type": "widget:added", "data": {"widget": {...}}}
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// RoomRequest is the payload of join_dashboard, leave_dashboard and joined.
type RoomRequest struct {
	DashboardID string `json:"dashboard_id"`
}

// ChangeEvent is one of WidgetAdded, WidgetUpdated, WidgetDeleted or
// PositionsUpdated.
type ChangeEvent interface {
	// Kind returns the wire event name.
	Kind() string
	// Room returns the dashboard the event is scoped to, or "" when unscoped.
	Room() string
	// Scoped returns a copy of the event stamped with dashboardID.
	Scoped(dashboardID string) ChangeEvent
	validate() error
}

// WidgetAdded announces a new widget.
type WidgetAdded struct {
	DashboardID string `json:"dashboard_id,omitempty"`
	Widget      Widget `json:"widget"`
}

// WidgetUpdated announces a changed widget's full new content.
type WidgetUpdated struct {
	DashboardID string `json:"dashboard_id,omitempty"`
	Widget      Widget `json:"widget"`
}

// WidgetDeleted announces a removed widget.
type WidgetDeleted struct {
	DashboardID string `json:"dashboard_id,omitempty"`
	WidgetID    string `json:"widget_id"`
}

// PositionsUpdated carries a batch of grid moves/resizes.
type PositionsUpdated struct {
	DashboardID string      `json:"dashboard_id,omitempty"`
	Positions   PositionMap `json:"positions"`
}

func (e WidgetAdded) Kind() string      { return EventWidgetAdded }
func (e WidgetUpdated) Kind() string    { return EventWidgetUpdated }
func (e WidgetDeleted) Kind() string    { return EventWidgetDeleted }
func (e PositionsUpdated) Kind() string { return EventPositionsUpdated }

func (e WidgetAdded) Room() string      { return e.DashboardID }
func (e WidgetUpdated) Room() string    { return e.DashboardID }
func (e WidgetDeleted) Room() string    { return e.DashboardID }
func (e PositionsUpdated) Room() string { return e.DashboardID }

func (e WidgetAdded) Scoped(id string) ChangeEvent      { e.DashboardID = id; return e }
func (e WidgetUpdated) Scoped(id string) ChangeEvent    { e.DashboardID = id; return e }
func (e WidgetDeleted) Scoped(id string) ChangeEvent    { e.DashboardID = id; return e }
func (e PositionsUpdated) Scoped(id string) ChangeEvent { e.DashboardID = id; return e }

func (e WidgetAdded) validate() error   { return requireWidgetID(e.Widget) }
func (e WidgetUpdated) validate() error { return requireWidgetID(e.Widget) }

func (e WidgetDeleted) validate() error {
	if e.WidgetID == "" {
		return fmt.Errorf("%w: widget_id is required", ErrInvalidPayload)
	}
	return nil
}

func (e PositionsUpdated) validate() error {
	if e.Positions == nil {
		return fmt.Errorf("%w: positions is required", ErrInvalidPayload)
	}
	return nil
}

func requireWidgetID(w Widget) error {
	if w.ID == "" {
		return fmt.Errorf("%w: widget.id is required", ErrInvalidPayload)
	}
	return nil
}

// IsChangeEventType reports whether eventType names a change event.
func IsChangeEventType(eventType string) bool {
	switch eventType {
	case EventWidgetAdded, EventWidgetUpdated, EventWidgetDeleted, EventPositionsUpdated:
		return true
	default:
		return false
	}
}

// DecodeChangeEvent decodes the data of a change-event frame into its typed
// variant and checks the fields every variant requires.
func DecodeChangeEvent(eventType string, data []byte) (ChangeEvent, error) {
	var (
		event ChangeEvent
		err   error
	)

	switch eventType {
	case EventWidgetAdded:
		var e WidgetAdded
		err = json.Unmarshal(data, &e)
		event = e
	case EventWidgetUpdated:
		var e WidgetUpdated
		err = json.Unmarshal(data, &e)
		event = e
	case EventWidgetDeleted:
		var e WidgetDeleted
		err = json.Unmarshal(data, &e)
		event = e
	case EventPositionsUpdated:
		var e PositionsUpdated
		err = json.Unmarshal(data, &e)
		event = e
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, eventType, err)
	}
	if err := event.validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// NewEnvelope marshals data into an Envelope of the given type.
func NewEnvelope(msgType string, data any) (Envelope, error) {
	if data == nil {
		return Envelope{Type: msgType}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return Envelope{Type: msgType, Data: raw}, nil
}

// EncodeEnvelope marshals a typed payload straight into frame bytes.
func EncodeEnvelope(msgType string, data any) ([]byte, error) {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// ChangeEnvelope wraps a change event in a wire envelope.
func ChangeEnvelope(event ChangeEvent) (Envelope, error) {
	return NewEnvelope(event.Kind(), event)
}

// ChangeNotice is the message carried on the change-event bus between the
// dashboard API and every room hub instance.
type ChangeNotice struct {
	DashboardID string          `json:"dashboard_id"`
	Type        string          `json:"type"`
	Data        json.RawMessage `json:"data"`
}

// NewChangeNotice scopes event to dashboardID and encodes it for the bus.
func NewChangeNotice(dashboardID string, event ChangeEvent) (*ChangeNotice, error) {
	scoped := event.Scoped(dashboardID)
	raw, err := json.Marshal(scoped)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event.Kind(), err)
	}
	return &ChangeNotice{DashboardID: dashboardID, Type: scoped.Kind(), Data: raw}, nil
}
