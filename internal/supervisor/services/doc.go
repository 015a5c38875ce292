// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

// Package services adapts DashSync components to suture.Service.
//
// Each wrapper depends on a narrow interface (ContextHub, ChangeForwarder,
// HTTPServer) so the supervisor tree can be tested with mocks.
package services
