// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/models"
	"github.com/tomtom215/dashsync/internal/realtime"
)

// errRetriesExhausted ends watch once the client gives up reconnecting.
var errRetriesExhausted = errors.New("reconnect attempts exhausted")

func watchCmd(root *rootOptions) *cobra.Command {
	var (
		dashboardID string
		url         string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow one dashboard's live changes",
		Long: `Connect to a room hub, join the dashboard's room and log every widget
change and connection change until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if url != "" {
				cfg.Client.URL = url
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := realtime.New(cfg.Client)
			if err != nil {
				return err
			}
			return watch(ctx, client, dashboardID)
		},
	}

	cmd.Flags().StringVarP(&dashboardID, "dashboard", "d", "", "dashboard ID to follow")
	cmd.Flags().StringVar(&url, "url", "", "WebSocket URL of the room hub (overrides client.url)")
	_ = cmd.MarkFlagRequired("dashboard")

	return cmd
}

// exhaustedPoll is how often watch checks whether the client gave up.
const exhaustedPoll = 500 * time.Millisecond

// watch logs client events until ctx ends or the client stops retrying. The
// room is joined on the first connect; the client rejoins it after drops.
func watch(ctx context.Context, client *realtime.Client, dashboardID string) error {
	log := logging.WithComponent("dashctl").With().Str("dashboard_id", dashboardID).Logger()

	client.OnConnectionChange(func(connected bool) {
		if !connected {
			log.Warn().Msg("Disconnected")
			return
		}
		log.Info().Msg("Connected")
		if client.CurrentRoom() == "" {
			client.JoinRoom(dashboardID)
		}
	})
	client.OnWidgetAdded(func(w models.Widget) {
		log.Info().Str("event", models.EventWidgetAdded).Str("widget_id", w.ID).Str("widget_type", w.Type).Msg("Widget added")
	})
	client.OnWidgetUpdated(func(w models.Widget) {
		log.Info().Str("event", models.EventWidgetUpdated).Str("widget_id", w.ID).Str("widget_type", w.Type).Msg("Widget updated")
	})
	client.OnWidgetDeleted(func(widgetID string) {
		log.Info().Str("event", models.EventWidgetDeleted).Str("widget_id", widgetID).Msg("Widget deleted")
	})
	client.OnPositionsUpdated(func(positions models.PositionMap) {
		log.Info().Str("event", models.EventPositionsUpdated).Int("widgets", len(positions)).Msg("Positions updated")
	})

	client.Connect()
	defer func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("Close failed")
		}
	}()

	ticker := time.NewTicker(exhaustedPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping")
			return nil
		case <-ticker.C:
			if client.RetryExhausted() {
				return errRetriesExhausted
			}
		}
	}
}
