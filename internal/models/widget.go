// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Widget is one tile on a dashboard grid: a chart, table, or list bound to a
// saved search over one of the data domains (news, CVEs, credentials, breaches,
// chat archives).
//
// Config is carried through untouched; its shape belongs to the widget type and
// is owned by the dashboard REST API.
type Widget struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Title      string          `json:"title,omitempty"`
	DataSource string          `json:"data_source,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
	Position   *Position       `json:"position,omitempty"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// Position is a widget's cell rectangle on the dashboard grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// PositionMap maps widget IDs to their grid positions.
type PositionMap map[string]Position
