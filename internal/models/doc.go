// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

/*
Package models defines the data shared by the DashSync client, room hub,
change-event bus and HTTP API.

Wire Protocol:

Every WebSocket frame is a JSON Envelope {"type", "data"}. Clients send
join_dashboard and leave_dashboard commands carrying a RoomRequest; the hub
replies joined and forwards change events:

  - widget:added      {"widget": {...}}
  - widget:updated    {"widget": {...}}
  - widget:deleted    {"widget_id": "..."}
  - positions:updated {"positions": {"w1": {"x":0,"y":0,"w":6,"h":4}}}

Change events published through the hub carry a dashboard_id so receivers can
discard frames addressed to a room they already left.

ChangeEvent is a closed set of four variants; DecodeChangeEvent is the only
constructor from wire bytes and is used by both the client dispatcher and the
HTTP publish endpoint.
*/
package models
