// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

/*
Package supervisor runs the DashSync server's long-lived services under a
suture v4 supervision tree.

Tree layout:

	dashsync (root)
	├── messaging-layer
	│   ├── room-hub          (roomhub.Hub.RunWithContext)
	│   └── change-forwarder  (eventbus.Forwarder.Serve)
	└── api-layer
	    └── http-server       (net/http.Server)

A crashing service is restarted with suture's backoff; the layers isolate
failures so a forwarder restart does not drop HTTP traffic. Supervisor events
are logged through sutureslog over the zerolog slog adapter.

Service wrappers live in the services subpackage.
*/
package supervisor
