// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

/*
Package middleware provides the chi-compatible HTTP middleware used by the
DashSync API server.

  - RequestID: X-Request-ID propagation; the ID becomes the correlation ID of
    every log line written through logging.Ctx for the request.
  - PrometheusMetrics: request count and latency per method, route pattern
    and status code.

Routes are labelled with the chi route pattern (for example
/api/v1/rooms/{dashboardID}) rather than the raw path, so dashboard IDs do
not explode metric cardinality.

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
