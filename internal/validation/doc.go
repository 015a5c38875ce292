// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

// Package validation validates HTTP request structs with go-playground/validator.
//
// The shared validator reports fields by their JSON names and adds one custom
// tag, dashboardid, used for room identifiers in paths and bodies:
//
//	type roomPath struct {
//	    DashboardID string `json:"dashboard_id" validate:"required,dashboardid"`
//	}
//
//	if verr := validation.ValidateStruct(&path); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	}
package validation
