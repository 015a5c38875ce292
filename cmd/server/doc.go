// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

/*
Package main is the DashSync room-registry server.

Dashboard clients connect over WebSocket, join one room per dashboard, and
receive every change published for that dashboard. Changes enter through the
HTTP API and travel over the change-event bus, so several server instances
behind a load balancer all deliver them to their own room members.

# Application Architecture

	RootSupervisor ("dashsync")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Room Hub (join/leave/broadcast event loop)
	│   └── Change Forwarder (bus subscription -> room broadcast)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router, /ws upgrade, /metrics)

# Configuration

Koanf v2 layers defaults, an optional YAML file (config.yaml or CONFIG_PATH)
and environment variables:

	HTTP_PORT=3858               # listen port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	BUS_BACKEND=memory           # memory (single instance) or nats
	NATS_URL=nats://nats:4222    # when BUS_BACKEND=nats
	NATS_EMBEDDED=true           # run an in-process NATS server
	CORS_ORIGINS=https://app.example.com

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree: the HTTP server drains, the
hub closes every connection, and the bus is closed last.
*/
package main
