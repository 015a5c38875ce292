// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

/*
Package api is the HTTP surface of the DashSync server, built on chi.

Routes:

	GET  /ws                                       WebSocket upgrade to the room hub
	GET  /metrics                                  Prometheus metrics
	GET  /api/v1/health/live                       liveness
	GET  /api/v1/health/ready                      readiness (hub running, bus open)
	GET  /api/v1/rooms                             live rooms with member counts
	GET  /api/v1/rooms/{dashboardID}               member count of one room
	POST /api/v1/dashboards/{dashboardID}/events   publish a change to the room

Every JSON response uses the models.APIResponse envelope. Published changes
are validated, stamped with the dashboard ID and handed to the change-event
bus; they reach clients asynchronously, so the endpoint answers
202 Accepted.

The /api/v1 group is rate limited per client IP with go-chi/httprate; CORS is
handled globally by go-chi/cors so preflight requests succeed.
*/
package api
