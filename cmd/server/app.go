// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/dashsync/internal/api"
	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/eventbus"
	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/roomhub"
	"github.com/tomtom215/dashsync/internal/supervisor"
	"github.com/tomtom215/dashsync/internal/supervisor/services"
)

// app holds the wired server components.
type app struct {
	cfg       *config.Config
	bus       *eventbus.Bus
	publisher *eventbus.Publisher
	hub       *roomhub.Hub
	forwarder *eventbus.Forwarder
	server    *http.Server
	tree      *supervisor.SupervisorTree
}

// newApp builds every component from cfg and registers the long-lived ones
// with a supervisor tree. Nothing runs until the tree is served.
func newApp(cfg *config.Config) (*app, error) {
	bus, err := eventbus.New(cfg.Bus, eventbus.NewLogger())
	if err != nil {
		return nil, fmt.Errorf("create change-event bus: %w", err)
	}

	hub := roomhub.NewHub(cfg.Server)
	publisher := eventbus.NewPublisher(bus.Publisher(), cfg.Bus)
	forwarder := eventbus.NewForwarder(bus.Subscriber(), bus.Topic(), hub)

	handler := api.NewHandler(api.Dependencies{
		Rooms:     hub,
		Publisher: publisher,
		WebSocket: roomhub.ServeWS(hub, cfg.Security.CORSOrigins),
		Readiness: map[string]api.ReadinessCheck{
			"room_hub":  hub.Running,
			"bus":       bus.Healthy,
			"forwarder": forwarder.Subscribed,
		},
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(services.NewRoomHubService(hub))
	tree.AddMessagingService(services.NewForwarderService(forwarder))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	return &app{
		cfg:       cfg,
		bus:       bus,
		publisher: publisher,
		hub:       hub,
		forwarder: forwarder,
		server:    server,
		tree:      tree,
	}, nil
}

// serve runs the tree until ctx is canceled or the tree fails, then closes
// the bus. suture sends the tree's result once and never closes the channel,
// so it is received exactly once.
func (a *app) serve(ctx context.Context) error {
	logging.Info().Msg("Starting supervisor tree...")
	errCh := a.tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if errors.Is(treeErr, context.Canceled) {
		treeErr = nil
	}

	unstopped, _ := a.tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("name", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err := a.close(); err != nil {
		logging.Error().Err(err).Msg("Error closing change-event bus")
	}
	return treeErr
}

// close releases the publisher and the bus. Call after the tree has stopped.
func (a *app) close() error {
	return errors.Join(a.publisher.Close(), a.bus.Close())
}
