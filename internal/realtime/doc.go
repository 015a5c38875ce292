// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

/*
Package realtime implements the live dashboard synchronization client.

A Client owns one persistent WebSocket connection to a room hub, keeps it
alive across drops with a bounded retry budget, holds membership in at most
one dashboard room, and routes server change events to one registered handler
per event kind.

Usage:

	client, err := realtime.New(cfg.Client)
	if err != nil {
	    return err
	}
	client.OnConnectionChange(func(connected bool) { ui.SetLive(connected) })
	client.OnPositionsUpdated(func(p models.PositionMap) { grid.Apply(p) })

	client.Connect()
	...
	client.JoinRoom("dash-42") // once OnConnectionChange(true) has fired

	defer client.Close()

Components:

  - lifecycle: explicit state machine Disconnected -> Connecting -> Connected,
    with a retry-exhausted terminal substate. It decides retries, rejoins and
    connection-change notifications and never touches the network.
  - run loop: dials through a Dialer, waits between attempts with an
    exponential backoff capped at ReconnectDelayMax, and runs one session
    (write pump plus read loop) per successful dial.
  - roomCoordinator: optimistic single-room membership with duplicate-join
    suppression, implicit leave on room switch and rejoin after reconnect.
  - dispatcher: single-slot handler registry. Events are decoded and delivered
    synchronously on the read loop, in arrival order.

Error Policy:

No method returns a network error. Failures are logged, counted in metrics and
surfaced through OnConnectionChange. Invalid calls (JoinRoom while not
connected, an empty room ID) log a warning and change nothing.

Thread Safety:

All methods are safe for concurrent use. Event handlers and connection-change
notifications from the transport run on the client's connection goroutine, one
at a time; a slow handler delays later events. Disconnect reports its
connection change on the caller's goroutine. Close waits for the connection
goroutine and must not be called from a handler.
*/
package realtime
