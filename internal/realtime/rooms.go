// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package realtime

import (
	"sync"

	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/metrics"
	"github.com/tomtom215/dashsync/internal/models"
)

// commandSender is the part of the connection manager the room coordinator
// needs. Implementations must not call back into the coordinator.
type commandSender interface {
	isConnected() bool
	sendCommand(commandType, dashboardID string) bool
}

// roomCoordinator tracks the single room this client believes it belongs to.
//
// Membership is optimistic: it is set as soon as the join command is queued
// and is what suppresses duplicate joins. confirmed flips once the hub's
// joined acknowledgment for the same room arrives.
//
// Lock order: roomCoordinator.mu is taken before Client.mu.
type roomCoordinator struct {
	mu        sync.RWMutex
	conn      commandSender
	current   string
	confirmed bool
}

func newRoomCoordinator(conn commandSender) *roomCoordinator {
	return &roomCoordinator{conn: conn}
}

// join requests membership in dashboardID, leaving any other room first.
func (r *roomCoordinator) join(dashboardID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joinLocked(dashboardID)
}

func (r *roomCoordinator) joinLocked(dashboardID string) {
	if dashboardID == "" {
		logger().Warn().Msg("Join rejected: empty dashboard ID")
		return
	}
	if !r.conn.isConnected() {
		metrics.RecordClientCommandRejected("disconnected")
		logger().Warn().
			Str("dashboard_id", logging.Sanitize(dashboardID)).
			Msg("Join rejected: not connected")
		return
	}
	if r.current == dashboardID {
		return
	}

	if r.current != "" {
		r.conn.sendCommand(models.CommandLeaveDashboard, r.current)
	}
	if !r.conn.sendCommand(models.CommandJoinDashboard, dashboardID) {
		logger().Warn().
			Str("dashboard_id", logging.Sanitize(dashboardID)).
			Msg("Join command not queued; membership restored on next reconnect")
	}
	r.current = dashboardID
	r.confirmed = false
}

// leave drops membership, telling the hub when the connection is up.
func (r *roomCoordinator) leave() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == "" {
		return
	}
	if r.conn.isConnected() {
		r.conn.sendCommand(models.CommandLeaveDashboard, r.current)
	}
	r.current = ""
	r.confirmed = false
}

// rejoin re-issues the join for the held room after a reconnect. The held ID
// is cleared first so the join path's duplicate guard lets it through.
func (r *roomCoordinator) rejoin() {
	r.mu.Lock()
	defer r.mu.Unlock()

	dashboardID := r.current
	if dashboardID == "" {
		return
	}
	r.current = ""
	r.confirmed = false

	logger().Info().Str("dashboard_id", logging.Sanitize(dashboardID)).Msg("Rejoining dashboard after reconnect")
	r.joinLocked(dashboardID)
}

// confirm marks membership confirmed when dashboardID is the held room.
// Acknowledgments for any other room are stale and reported as false.
func (r *roomCoordinator) confirm(dashboardID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dashboardID == "" || dashboardID != r.current {
		return false
	}
	r.confirmed = true
	return true
}

// reset clears membership without sending anything.
func (r *roomCoordinator) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = ""
	r.confirmed = false
}

func (r *roomCoordinator) room() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *roomCoordinator) isConfirmed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.confirmed
}
