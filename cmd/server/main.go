// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/logging"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "dashsync",
		Output:    os.Stderr,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("bus_backend", cfg.Bus.Backend).
		Str("environment", cfg.Server.Environment).
		Msg("Starting DashSync")

	if cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS_ORIGINS=* accepts WebSocket upgrades from any site")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	a, err := newApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.serve(ctx); err != nil {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	logging.Info().Msg("DashSync stopped")
}
