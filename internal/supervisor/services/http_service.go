// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultAPIShutdownTimeout = 10 * time.Second

// HTTPServer is the part of *http.Server the api layer drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService is the api-layer service serving /ws, /api/v1, /metrics
// and the health endpoints. Upgraded /ws connections are hijacked and so are
// not tracked by Shutdown; they close when the room-hub service stops.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService wraps server. shutdownTimeout is cfg.Server.ShutdownTimeout;
// a non-positive value becomes 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultAPIShutdownTimeout
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve listens until the listener fails or ctx is canceled. A listener
// failure is returned so the api layer restarts the server; a clean stop
// returns ctx.Err().
func (h *HTTPServerService) Serve(ctx context.Context) error {
	listenDone := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		listenDone <- err
	}()

	select {
	case err := <-listenDone:
		if err != nil {
			return fmt.Errorf("api server on listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	if err := h.drain(); err != nil {
		return err
	}
	<-listenDone
	return ctx.Err()
}

// drain stops accepting requests and waits for in-flight publishes and
// health checks, up to shutdownTimeout.
func (h *HTTPServerService) drain() error {
	drainCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("api server drain: %w", err)
	}
	return nil
}

// String implements fmt.Stringer for logging.
func (h *HTTPServerService) String() string {
	return h.name
}
