// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/metrics"
)

// newReconnectBackOff doubles from ReconnectDelay up to ReconnectDelayMax.
// The elapsed-time limit is disabled; the lifecycle's attempt budget decides
// when to stop.
func newReconnectBackOff(cfg config.ClientConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.ReconnectDelay
	b.MaxInterval = cfg.ReconnectDelayMax
	b.Multiplier = 2
	b.RandomizationFactor = cfg.ReconnectJitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// session is one successfully dialed connection: a buffered outbound queue
// drained by writePump, and a read loop run on the connection goroutine.
type session struct {
	conn         Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	pingInterval time.Duration
}

func newSession(conn Conn, cfg config.ClientConfig) *session {
	return &session{
		conn:         conn,
		send:         make(chan []byte, cfg.SendBuffer),
		done:         make(chan struct{}),
		pingInterval: cfg.PingInterval,
	}
}

// enqueue queues a frame without blocking. It reports false when the session
// has ended or the queue is full.
func (s *session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// close ends the session and unblocks the read loop.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.conn.Close(); err != nil {
			logger().Debug().Err(err).Msg("Connection close returned error")
		}
	})
}

// writePump drains the outbound queue and pings the server.
func (s *session) writePump() {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case frame := <-s.send:
			if err := s.conn.WriteMessage(frame); err != nil {
				logger().Warn().Err(err).Msg("Write failed, closing connection")
				s.close()
				return
			}
		case <-ticker.C:
			if err := s.conn.Ping(); err != nil {
				logger().Warn().Err(err).Msg("Ping failed, closing connection")
				s.close()
				return
			}
		}
	}
}

// readLoop hands every inbound frame to dispatch, in order, until the
// connection fails or is closed.
func (s *session) readLoop(dispatch func([]byte)) error {
	for {
		data, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		dispatch(data)
	}
}

// run owns one connection run: dial, retry with backoff, serve sessions and
// redial after drops, until the lifecycle stops asking for retries or ctx is
// canceled by Disconnect.
func (c *Client) run(ctx context.Context, gen uint64) {
	defer c.wg.Done()

	bo := c.newBackOff()

	for {
		conn, err := c.dialer.Dial(ctx, c.cfg.URL)
		if ctx.Err() != nil {
			if conn != nil {
				_ = conn.Close()
			}
			return
		}

		if err != nil {
			tr := c.signal(gen, sigConnectFailed, nil, err)
			if !tr.retry {
				c.announce(tr)
				return
			}
			if !sleepContext(ctx, bo.NextBackOff()) {
				return
			}
			continue
		}

		sess := newSession(conn, c.cfg)
		tr := c.signal(gen, sigConnected, sess, nil)
		if tr.ignored {
			sess.close()
			return
		}
		bo.Reset()

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			sess.writePump()
		}()

		if tr.rejoin {
			c.rooms.rejoin()
		}
		c.announce(tr)

		readErr := sess.readLoop(c.dispatcher.dispatch)
		sess.close()

		if ctx.Err() != nil {
			return
		}

		tr = c.signal(gen, sigDropped, sess, readErr)
		c.announce(tr)
		if !tr.retry {
			return
		}
		if !sleepContext(ctx, bo.NextBackOff()) {
			return
		}
	}
}

// signal applies a transport signal under the client lock, attaches or
// detaches sess, and records logs and metrics. Handlers are not called here;
// the run loop calls announce once any rejoin has been queued.
func (c *Client) signal(gen uint64, sig signal, sess *session, cause error) transition {
	c.mu.Lock()
	tr := c.fsm.apply(gen, sig)
	if !tr.ignored {
		switch sig {
		case sigConnected:
			c.session = sess
		case sigDropped:
			if c.session == sess {
				c.session = nil
			}
		}
	}
	c.mu.Unlock()

	c.record(tr, cause)
	return tr
}

// record logs a transition and updates metrics.
func (c *Client) record(tr transition, cause error) {
	if tr.ignored {
		logger().Debug().
			Str("signal", tr.signal.String()).
			Str("state", tr.from.String()).
			Msg("Ignored lifecycle signal")
		return
	}

	metrics.SetClientState(int(tr.to))

	switch tr.signal {
	case sigConnectRequested:
		logger().Info().Str("url", c.cfg.URL).Msg("Connecting")
	case sigConnected:
		metrics.RecordConnectAttempt("success")
		if tr.reconnect {
			metrics.ClientReconnects.Inc()
		}
		logger().Info().Str("url", c.cfg.URL).Bool("reconnect", tr.reconnect).Msg("Connected")
	case sigConnectFailed:
		if tr.exhausted {
			metrics.RecordConnectAttempt("exhausted")
			logger().Warn().Err(cause).
				Int("attempts", tr.attempt).
				Msg("Reconnect budget exhausted, staying disconnected")
			return
		}
		metrics.RecordConnectAttempt("failure")
		logger().Warn().Err(cause).
			Int("attempt", tr.attempt).
			Int("max_attempts", c.cfg.MaxReconnectAttempts).
			Msg("Connection attempt failed, retrying")
	case sigDropped:
		ev := logger().Warn()
		if cause != nil && isNormalClose(cause) {
			ev = logger().Info()
		}
		ev.Err(cause).Msg("Connection lost, reconnecting")
	case sigDisconnectRequested:
		logger().Info().Msg("Disconnected")
	}
}

// announce delivers the transition's connection change, if any.
func (c *Client) announce(tr transition) {
	if tr.ignored || !tr.notify {
		return
	}
	c.dispatcher.connectionChanged(tr.connected)
}

// sleepContext waits for d or until ctx is done. It reports whether the full
// delay elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
