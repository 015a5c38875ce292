// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package eventbus

import "errors"

var (
	// ErrPublisherClosed is returned by PublishChange after Close.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrBusUnavailable is returned while the publish circuit breaker is open.
	ErrBusUnavailable = errors.New("change-event bus unavailable")

	// ErrInvalidNotice is returned for a notice without a dashboard or payload.
	ErrInvalidNotice = errors.New("invalid change notice")

	// ErrSubscriptionClosed is returned by Forwarder.Serve when the subscriber
	// closes its message channel.
	ErrSubscriptionClosed = errors.New("subscription closed")

	// ErrUnknownBackend is returned by New for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown bus backend")
)
