// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/models"
	"github.com/tomtom215/dashsync/internal/validation"
)

func publishCmd(root *rootOptions) *cobra.Command {
	var (
		dashboardID string
		eventType   string
		data        string
		server      string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish one change to a dashboard's room",
		Example: `  dashctl publish -d ops -t widget:added --data '{"widget":{"id":"w1","type":"chart"}}'
  dashctl publish -d ops -t positions:updated --data '{"positions":{"w1":{"x":0,"y":0,"w":4,"h":3}}}'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if server == "" {
				cfg, err := root.loadConfig()
				if err != nil {
					return err
				}
				server = apiBaseFromClientURL(cfg.Client.URL)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := publish(ctx, http.DefaultClient, server, dashboardID, eventType, []byte(data))
			if err != nil {
				return err
			}
			logging.Info().
				Str("dashboard_id", result.DashboardID).
				Str("type", result.Type).
				Str("message_id", result.MessageID).
				Msg("Change published")
			return nil
		},
	}

	cmd.Flags().StringVarP(&dashboardID, "dashboard", "d", "", "dashboard ID")
	cmd.Flags().StringVarP(&eventType, "type", "t", "", "change type: widget:added, widget:updated, widget:deleted, positions:updated")
	cmd.Flags().StringVar(&data, "data", "", "change payload as JSON")
	cmd.Flags().StringVar(&server, "server", "", "HTTP base URL of the server (default: derived from client.url)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	_ = cmd.MarkFlagRequired("dashboard")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

// publish checks the change locally, then posts it to the server API.
func publish(ctx context.Context, httpClient *http.Client, server, dashboardID, eventType string, data []byte) (*models.PublishChangeResult, error) {
	if !validation.IsDashboardID(dashboardID) {
		return nil, fmt.Errorf("invalid dashboard ID %q", dashboardID)
	}
	if _, err := models.DecodeChangeEvent(eventType, data); err != nil {
		return nil, err
	}

	body, err := json.Marshal(models.PublishChangeRequest{Type: eventType, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := strings.TrimRight(server, "/") + "/api/v1/dashboards/" + url.PathEscape(dashboardID) + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post change: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Data  *models.PublishChangeResult `json:"data"`
		Error *models.APIError            `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusAccepted {
		if envelope.Error != nil {
			return nil, fmt.Errorf("server rejected change (%d %s): %s", resp.StatusCode, envelope.Error.Code, envelope.Error.Message)
		}
		return nil, fmt.Errorf("server rejected change: status %d", resp.StatusCode)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("server response has no data")
	}
	return envelope.Data, nil
}

// apiBaseFromClientURL maps ws://host/ws to http://host and wss to https.
func apiBaseFromClientURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = ""
	u.RawQuery = ""
	return u.String()
}
