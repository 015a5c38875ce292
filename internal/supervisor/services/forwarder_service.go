// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package services

import (
	"context"
	"errors"
	"fmt"
)

// ChangeForwarder consumes the change-event bus until ctx is canceled.
//
// Satisfied by *eventbus.Forwarder.
type ChangeForwarder interface {
	Serve(ctx context.Context) error
}

// ForwarderService supervises the bus-to-hub forwarder. A subscription that
// ends early is returned as an error so suture resubscribes with backoff.
type ForwarderService struct {
	forwarder ChangeForwarder
	name      string
}

// NewForwarderService wraps forwarder.
func NewForwarderService(forwarder ChangeForwarder) *ForwarderService {
	return &ForwarderService{
		forwarder: forwarder,
		name:      "change-forwarder",
	}
}

// Serve implements suture.Service.
func (s *ForwarderService) Serve(ctx context.Context) error {
	err := s.forwarder.Serve(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("subscription ended")
	}
	return fmt.Errorf("change forwarder stopped: %w", err)
}

// String implements fmt.Stringer for logging.
func (s *ForwarderService) String() string {
	return s.name
}
