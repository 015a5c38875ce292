// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

/*
Package roomhub is the server side of dashboard synchronization: it accepts
WebSocket connections, tracks which connections belong to which dashboard
room, and fans change events out to room members.

Protocol:

Clients send {"type":"join_dashboard","data":{"dashboard_id":"..."}} and
{"type":"leave_dashboard",...}. A join is answered with
{"type":"joined","data":{"dashboard_id":"..."}}. Change events arrive from the
change-event bus through BroadcastToRoom and are delivered to every current
member of the target room, and only to them.

A connection may belong to several rooms here; the realtime client keeps
itself in at most one.

Concurrency:

One goroutine (RunWithContext) owns all membership state and processes, in
priority order: shutdown, connection register/unregister, join/leave
commands, then room broadcasts. Stats readers use an RWMutex. Each
connection has a read pump and a write pump; a member whose send queue is
full is disconnected rather than allowed to stall the room.

Commands are rate limited per connection with golang.org/x/time/rate.
Malformed, unknown and rate-limited commands are logged and ignored.
*/
package roomhub
