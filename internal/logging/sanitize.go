// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package logging

import (
	"fmt"
	"strings"
)

// maxLoggedValueLen bounds peer-supplied strings written to logs.
const maxLoggedValueLen = 128

// Sanitize escapes control characters and truncates a peer-supplied value
// (dashboard IDs, origins, command names) before it is written to a log line.
func Sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r < 0x20 || r == 0x7F {
			b.WriteString(fmt.Sprintf("\\x%02x", r))
			continue
		}
		b.WriteRune(r)
	}

	out := b.String()
	if len(out) > maxLoggedValueLen {
		return out[:maxLoggedValueLen] + "..."
	}
	return out
}
