// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package services

import "context"

// ContextHub is a hub whose event loop stops when ctx is canceled.
//
// Satisfied by *roomhub.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// RoomHubService runs the room hub's event loop under supervision.
//
//	hub := roomhub.NewHub(cfg.Server)
//	tree.AddMessagingService(services.NewRoomHubService(hub))
type RoomHubService struct {
	hub  ContextHub
	name string
}

// NewRoomHubService wraps hub.
func NewRoomHubService(hub ContextHub) *RoomHubService {
	return &RoomHubService{
		hub:  hub,
		name: "room-hub",
	}
}

// Serve implements suture.Service.
func (s *RoomHubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (s *RoomHubService) String() string {
	return s.name
}
