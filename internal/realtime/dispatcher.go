// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package realtime

import (
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/metrics"
	"github.com/tomtom215/dashsync/internal/models"
)

// handlers holds one callback per slot. A nil slot drops its events.
type handlers struct {
	widgetAdded      func(models.Widget)
	widgetUpdated    func(models.Widget)
	widgetDeleted    func(widgetID string)
	positionsUpdated func(models.PositionMap)
	connectionChange func(connected bool)
}

// dispatcher decodes inbound frames and invokes the registered handler for
// each kind. Slots are read under the lock and invoked outside it, so a
// handler may re-register itself or others.
type dispatcher struct {
	mu       sync.RWMutex
	handlers handlers
	rooms    *roomCoordinator
}

func newDispatcher(rooms *roomCoordinator) *dispatcher {
	return &dispatcher{rooms: rooms}
}

func (d *dispatcher) snapshot() handlers {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers
}

func (d *dispatcher) register(fn func(h *handlers)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.handlers)
}

func (d *dispatcher) connectionChanged(connected bool) {
	if h := d.snapshot().connectionChange; h != nil {
		h(connected)
	}
}

// dispatch handles one inbound frame.
func (d *dispatcher) dispatch(frame []byte) {
	var env models.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		metrics.RecordClientDrop("decode_error")
		logger().Warn().Err(err).Msg("Failed to decode frame")
		return
	}
	metrics.RecordClientEvent(env.Type)

	switch {
	case env.Type == models.EventJoined:
		d.handleJoined(env.Data)
	case models.IsChangeEventType(env.Type):
		d.handleChange(env.Type, env.Data)
	default:
		metrics.RecordClientDrop("unknown_type")
		logger().Debug().Str("type", logging.Sanitize(env.Type)).Msg("Unknown message type")
	}
}

func (d *dispatcher) handleJoined(data []byte) {
	var ack models.RoomRequest
	if err := json.Unmarshal(data, &ack); err != nil {
		metrics.RecordClientDrop("decode_error")
		logger().Warn().Err(err).Msg("Failed to decode joined acknowledgment")
		return
	}
	if !d.rooms.confirm(ack.DashboardID) {
		metrics.RecordClientDrop("room_mismatch")
		logger().Debug().
			Str("dashboard_id", logging.Sanitize(ack.DashboardID)).
			Msg("Ignoring stale joined acknowledgment")
		return
	}
	logger().Debug().Str("dashboard_id", ack.DashboardID).Msg("Room membership confirmed")
}

func (d *dispatcher) handleChange(eventType string, data []byte) {
	event, err := models.DecodeChangeEvent(eventType, data)
	if err != nil {
		metrics.RecordClientDrop("decode_error")
		logger().Warn().Err(err).Str("type", eventType).Msg("Failed to decode change event")
		return
	}

	// Events scoped to a room other than the one held were sent before a
	// room switch took effect on the hub.
	if room := event.Room(); room != "" && room != d.rooms.room() {
		metrics.RecordClientDrop("room_mismatch")
		logger().Debug().
			Str("type", eventType).
			Str("dashboard_id", logging.Sanitize(room)).
			Msg("Dropping change event for another room")
		return
	}

	h := d.snapshot()
	delivered := false

	switch e := event.(type) {
	case models.WidgetAdded:
		if h.widgetAdded != nil {
			h.widgetAdded(e.Widget)
			delivered = true
		}
	case models.WidgetUpdated:
		if h.widgetUpdated != nil {
			h.widgetUpdated(e.Widget)
			delivered = true
		}
	case models.WidgetDeleted:
		if h.widgetDeleted != nil {
			h.widgetDeleted(e.WidgetID)
			delivered = true
		}
	case models.PositionsUpdated:
		if h.positionsUpdated != nil {
			h.positionsUpdated(e.Positions)
			delivered = true
		}
	}

	if !delivered {
		metrics.RecordClientDrop("no_handler")
	}
}
