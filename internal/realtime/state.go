// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package realtime

// ConnectionState is the liveness of the client's connection.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

// String returns the state name.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// signal is a discrete input to the lifecycle state machine.
type signal int

const (
	sigConnectRequested signal = iota
	sigConnected
	sigConnectFailed
	sigDropped
	sigDisconnectRequested
)

func (s signal) String() string {
	switch s {
	case sigConnectRequested:
		return "connect_requested"
	case sigConnected:
		return "connected"
	case sigConnectFailed:
		return "connect_failed"
	case sigDropped:
		return "dropped"
	case sigDisconnectRequested:
		return "disconnect_requested"
	default:
		return "unknown"
	}
}

// transition is the outcome of applying one signal. The caller carries out
// the effects; the state machine itself performs no I/O.
type transition struct {
	signal signal
	from   ConnectionState
	to     ConnectionState

	// ignored is set for no-op requests and for signals from a superseded run.
	ignored bool

	// dial starts a new connection run immediately.
	dial bool

	// retry schedules another dial after the backoff delay.
	retry bool

	// attempt is the consecutive failure count after a failed dial.
	attempt int

	// exhausted is set when the retry budget ran out on this transition.
	exhausted bool

	// rejoin asks the room coordinator to restore membership.
	rejoin bool

	// reconnect is set when a connection succeeded after an earlier one in
	// the same run was lost.
	reconnect bool

	// notify reports connected to the connection-change handler.
	notify    bool
	connected bool
}

// lifecycle is the connection state machine with its reconnect budget.
//
//	Disconnected --connect requested--> Connecting
//	Connecting   --connected----------> Connected      (budget reset, rejoin, report true)
//	Connecting   --connect failed-----> Connecting     (attempts < max, retry)
//	Connecting   --connect failed-----> Disconnected   (attempts == max, exhausted, report false)
//	Connected    --dropped------------> Connecting     (report false, retry)
//	any          --disconnect---------> Disconnected   (report false if was Connected)
//
// Every connect and disconnect request starts a new generation. Signals
// tagged with an older generation come from a run that was already abandoned
// and are ignored.
type lifecycle struct {
	state       ConnectionState
	maxAttempts int
	attempts    int
	exhausted   bool
	generation  uint64

	// connectedOnce tracks whether the current run has connected before.
	connectedOnce bool
}

func newLifecycle(maxAttempts int) *lifecycle {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &lifecycle{state: Disconnected, maxAttempts: maxAttempts}
}

// apply feeds one signal into the machine. gen is only consulted for
// transport signals (connected, connect failed, dropped).
func (l *lifecycle) apply(gen uint64, sig signal) transition {
	tr := transition{signal: sig, from: l.state, to: l.state}

	switch sig {
	case sigConnectRequested:
		if l.state != Disconnected {
			tr.ignored = true
			return tr
		}
		l.generation++
		l.attempts = 0
		l.exhausted = false
		l.connectedOnce = false
		l.state = Connecting
		tr.dial = true

	case sigDisconnectRequested:
		l.generation++
		l.attempts = 0
		l.exhausted = false
		l.connectedOnce = false
		if l.state == Disconnected {
			tr.ignored = true
			return tr
		}
		tr.notify = l.state == Connected
		l.state = Disconnected

	case sigConnected:
		if gen != l.generation || l.state != Connecting {
			tr.ignored = true
			return tr
		}
		l.state = Connected
		l.attempts = 0
		tr.rejoin = true
		tr.reconnect = l.connectedOnce
		l.connectedOnce = true
		tr.notify = true
		tr.connected = true

	case sigConnectFailed:
		if gen != l.generation || l.state != Connecting {
			tr.ignored = true
			return tr
		}
		l.attempts++
		tr.attempt = l.attempts
		if l.attempts >= l.maxAttempts {
			l.state = Disconnected
			l.exhausted = true
			tr.exhausted = true
			tr.notify = true
		} else {
			tr.retry = true
		}

	case sigDropped:
		if gen != l.generation || l.state != Connected {
			tr.ignored = true
			return tr
		}
		l.state = Connecting
		tr.retry = true
		tr.notify = true
	}

	tr.to = l.state
	return tr
}
