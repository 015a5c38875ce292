// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package roomhub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/metrics"
	"github.com/tomtom215/dashsync/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// ErrEmptyRoom is returned when a broadcast names no room.
var ErrEmptyRoom = errors.New("dashboard id is required")

// command is a join or leave request from a connection.
type command struct {
	client      *Client
	kind        string
	dashboardID string
}

// roomMessage is an encoded frame addressed to one room.
type roomMessage struct {
	dashboardID string
	frame       []byte
}

// Hub maintains connections and room memberships and fans out room broadcasts.
type Hub struct {
	cfg config.ServerConfig

	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
	commands   chan command
	broadcast  chan roomMessage

	mu      sync.RWMutex
	running atomic.Bool

	// done is closed when the current run returns; guarded by mu.
	done chan struct{}
}

// NewHub creates a new Hub
func NewHub(cfg config.ServerConfig) *Hub {
	return &Hub{
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		commands:   make(chan command, 256),
		broadcast:  make(chan roomMessage, 256),
		done:       closedChan(),
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Done returns a channel closed when the current run stops. Before the first
// run it is already closed.
func (h *Hub) Done() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.done
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// connection and returns ctx.Err(). It is safe to run again afterwards, which
// is what the supervisor does on restart.
//
// Ready events are handled in priority order so membership is always settled
// before a broadcast is fanned out:
//  1. Shutdown
//  2. Register/Unregister
//  3. Join/leave commands
//  4. Room broadcasts
func (h *Hub) RunWithContext(ctx context.Context) error {
	done := make(chan struct{})
	h.mu.Lock()
	h.done = done
	h.mu.Unlock()
	defer close(done)

	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case cmd := <-h.commands:
			h.handleCommand(cmd)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case cmd := <-h.commands:
			h.handleCommand(cmd)
		case msg := <-h.broadcast:
			h.broadcastToRoom(msg)
		}
	}
}

// Running reports whether RunWithContext is active.
func (h *Hub) Running() bool {
	return h.running.Load()
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Str("conn_id", client.connID).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	removed := h.removeClientLocked(client)
	total := len(h.clients)
	h.mu.Unlock()

	if !removed {
		return
	}
	metrics.WSConnections.Set(float64(total))
	h.updateGauges()
	logging.Info().Str("conn_id", client.connID).Int("total_clients", total).Msg("websocket client disconnected")
}

// removeClientLocked drops the client from every room and closes its queue.
// Caller must hold h.mu.
func (h *Hub) removeClientLocked(client *Client) bool {
	if _, ok := h.clients[client]; !ok {
		return false
	}
	for dashboardID, members := range h.rooms {
		if members[client] {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, dashboardID)
			}
		}
	}
	delete(h.clients, client)
	close(client.send)
	return true
}

func (h *Hub) handleCommand(cmd command) {
	switch cmd.kind {
	case models.CommandJoinDashboard:
		h.join(cmd.client, cmd.dashboardID)
	case models.CommandLeaveDashboard:
		h.leave(cmd.client, cmd.dashboardID)
	}
}

func (h *Hub) join(client *Client, dashboardID string) {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	members, ok := h.rooms[dashboardID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[dashboardID] = members
	}
	members[client] = true
	size := len(members)
	h.mu.Unlock()

	h.updateGauges()
	logging.Debug().
		Str("conn_id", client.connID).
		Str("dashboard_id", dashboardID).
		Int("members", size).
		Msg("joined dashboard room")

	frame, err := models.EncodeEnvelope(models.EventJoined, models.RoomRequest{DashboardID: dashboardID})
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode joined acknowledgment")
		return
	}
	h.deliver(client, frame)
}

func (h *Hub) leave(client *Client, dashboardID string) {
	h.mu.Lock()
	members, ok := h.rooms[dashboardID]
	if ok && members[client] {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, dashboardID)
		}
	}
	h.mu.Unlock()

	h.updateGauges()
	logging.Debug().Str("conn_id", client.connID).Str("dashboard_id", dashboardID).Msg("left dashboard room")
}

// deliver queues a frame for one client, disconnecting it if the queue is full.
func (h *Hub) deliver(client *Client, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	select {
	case client.send <- frame:
	default:
		logging.Warn().Str("conn_id", client.connID).Msg("send queue full, disconnecting client")
		metrics.WSErrors.WithLabelValues("send_queue_full").Inc()
		h.removeClientLocked(client)
	}
}

// broadcastToRoom sends a frame to every member of the room in connection-ID order.
func (h *Hub) broadcastToRoom(msg roomMessage) {
	h.mu.Lock()

	members := h.rooms[msg.dashboardID]
	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- msg.frame:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		logging.Warn().Str("conn_id", client.connID).Msg("send queue full, disconnecting client")
		metrics.WSErrors.WithLabelValues("send_queue_full").Inc()
		h.removeClientLocked(client)
	}
	h.mu.Unlock()

	metrics.HubRoomBroadcasts.Inc()
	if len(toRemove) > 0 {
		h.updateGauges()
	}
	logging.Debug().
		Str("dashboard_id", msg.dashboardID).
		Int("recipients", len(clients)-len(toRemove)).
		Msg("broadcast to room")
}

// closeAllClients closes every connection in ID order. Called during shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		h.removeClientLocked(client)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)
	h.updateGauges()
}

// logGracefulShutdown closes all clients and logs the shutdown. ctx.Err() is
// not logged as an error because cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.ClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "room-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("room hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

func (h *Hub) updateGauges() {
	h.mu.RLock()
	rooms := len(h.rooms)
	members := 0
	for _, m := range h.rooms {
		members += len(m)
	}
	h.mu.RUnlock()
	metrics.UpdateHubGauges(rooms, members)
}

// BroadcastToRoom queues env for every member of dashboardID. It blocks while
// the broadcast queue is full, until ctx is done.
func (h *Hub) BroadcastToRoom(ctx context.Context, dashboardID string, env models.Envelope) error {
	if dashboardID == "" {
		return ErrEmptyRoom
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Type, err)
	}

	select {
	case h.broadcast <- roomMessage{dashboardID: dashboardID, frame: frame}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of rooms with at least one member.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// MemberCount returns the number of connections in a room.
func (h *Hub) MemberCount(dashboardID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[dashboardID])
}

// Rooms lists live rooms sorted by dashboard ID.
func (h *Hub) Rooms() []models.RoomStats {
	h.mu.RLock()
	stats := make([]models.RoomStats, 0, len(h.rooms))
	for dashboardID, members := range h.rooms {
		stats = append(stats, models.RoomStats{DashboardID: dashboardID, Members: len(members)})
	}
	h.mu.RUnlock()

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].DashboardID < stats[j].DashboardID
	})
	return stats
}
