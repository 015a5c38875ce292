// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/dashsync/internal/eventbus"
	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/models"
)

// maxEventBodyBytes bounds a published change body.
const maxEventBodyBytes = 64 * 1024

// RoomRegistry exposes room membership statistics. *roomhub.Hub satisfies it.
type RoomRegistry interface {
	ClientCount() int
	MemberCount(dashboardID string) int
	Rooms() []models.RoomStats
}

// ChangePublisher puts a change notice on the bus. *eventbus.Publisher
// satisfies it.
type ChangePublisher interface {
	PublishChange(ctx context.Context, notice *models.ChangeNotice) (string, error)
}

// ReadinessCheck reports whether one component can serve traffic.
type ReadinessCheck func() bool

// Dependencies are the components the handlers serve.
type Dependencies struct {
	Rooms     RoomRegistry
	Publisher ChangePublisher
	WebSocket http.Handler
	Readiness map[string]ReadinessCheck
}

// Handler serves the DashSync HTTP API.
type Handler struct {
	rooms     RoomRegistry
	publisher ChangePublisher
	websocket http.Handler
	readiness map[string]ReadinessCheck
	startTime time.Time
}

// NewHandler creates a handler over deps.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		rooms:     deps.Rooms,
		publisher: deps.Publisher,
		websocket: deps.WebSocket,
		readiness: deps.Readiness,
		startTime: time.Now(),
	}
}

// roomPath validates the dashboard ID taken from the URL.
type roomPath struct {
	DashboardID string `json:"dashboardID" validate:"required,dashboardid"`
}

// HealthLive reports that the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 200 only when every readiness check passes.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(h.readiness))
	for name := range h.readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	health := models.HealthStatus{Status: "ready", Components: make(map[string]bool, len(names))}
	for _, name := range names {
		ok := h.readiness[name]()
		health.Components[name] = ok
		if !ok {
			health.Status = "not_ready"
		}
	}

	status := http.StatusOK
	if health.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   health.Status,
		Data:     health,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// ListRooms returns live rooms and the connection count.
func (h *Handler) ListRooms(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, models.RoomList{
		Rooms:       h.rooms.Rooms(),
		Connections: h.rooms.ClientCount(),
	})
}

// GetRoom returns the member count of one room. Unknown rooms have zero members.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	path := roomPath{DashboardID: chi.URLParam(r, "dashboardID")}
	if apiErr := validateRequest(&path); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	respondSuccess(w, http.StatusOK, models.RoomStats{
		DashboardID: path.DashboardID,
		Members:     h.rooms.MemberCount(path.DashboardID),
	})
}

// PublishEvent validates a change, scopes it to the dashboard in the path and
// publishes it on the change-event bus.
func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	path := roomPath{DashboardID: chi.URLParam(r, "dashboardID")}
	if apiErr := validateRequest(&path); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	var req models.PublishChangeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, models.CodeValidationError, "Request body must be a JSON object with type and data", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	event, err := models.DecodeChangeEvent(req.Type, req.Data)
	if err != nil {
		respondError(w, http.StatusBadRequest, models.CodeInvalidEvent, err.Error(), nil)
		return
	}
	if room := event.Room(); room != "" && room != path.DashboardID {
		respondError(w, http.StatusBadRequest, models.CodeInvalidEvent, "data.dashboard_id does not match the dashboard in the path", nil)
		return
	}

	notice, err := models.NewChangeNotice(path.DashboardID, event)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.CodePublishFailed, "Failed to encode change", err)
		return
	}

	messageID, err := h.publisher.PublishChange(r.Context(), notice)
	if err != nil {
		if errors.Is(err, eventbus.ErrBusUnavailable) || errors.Is(err, eventbus.ErrPublisherClosed) {
			respondError(w, http.StatusServiceUnavailable, models.CodeServiceUnavailable, "Change-event bus unavailable", err)
			return
		}
		respondError(w, http.StatusInternalServerError, models.CodePublishFailed, "Failed to publish change", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("dashboard_id", path.DashboardID).
		Str("type", req.Type).
		Str("message_id", messageID).
		Msg("change accepted")

	respondSuccess(w, http.StatusAccepted, models.PublishChangeResult{
		DashboardID: path.DashboardID,
		Type:        req.Type,
		MessageID:   messageID,
	})
}

// WebSocket hands the request to the room hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.websocket == nil {
		respondError(w, http.StatusServiceUnavailable, models.CodeServiceUnavailable, "Room hub unavailable", nil)
		return
	}
	h.websocket.ServeHTTP(w, r)
}
