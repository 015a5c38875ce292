// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/metrics"
	"github.com/tomtom215/dashsync/internal/models"
)

// Metadata keys set on every published change.
const (
	MetadataDashboardID = "dashboard_id"
	MetadataEventType   = "event_type"
)

const breakerName = "bus-publish"

// Publisher publishes change notices with circuit breaker protection.
type Publisher struct {
	publisher message.Publisher
	topic     string
	timeout   time.Duration
	breaker   *gobreaker.CircuitBreaker[any]

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub. It does not take ownership: Close only stops
// further publishes, the Bus closes the underlying publisher.
func NewPublisher(pub message.Publisher, cfg config.BusConfig) *Publisher {
	return &Publisher{
		publisher: pub,
		topic:     cfg.Topic,
		timeout:   cfg.PublishTimeout,
		breaker:   NewCircuitBreaker(breakerName, cfg),
	}
}

// NewCircuitBreaker trips after BreakerFailureThresh consecutive failures and
// reports state changes to logs and metrics.
func NewCircuitBreaker(name string, cfg config.BusConfig) *gobreaker.CircuitBreaker[any] {
	threshold := cfg.BreakerFailureThresh
	if threshold == 0 {
		threshold = 1
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	}
	return gobreaker.NewCircuitBreaker[any](settings)
}

// PublishChange validates and publishes a notice, returning the message ID.
func (p *Publisher) PublishChange(ctx context.Context, notice *models.ChangeNotice) (string, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return "", ErrPublisherClosed
	}

	if notice == nil || notice.DashboardID == "" {
		return "", fmt.Errorf("%w: dashboard_id is required", ErrInvalidNotice)
	}
	if _, err := models.DecodeChangeEvent(notice.Type, notice.Data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidNotice, err)
	}

	payload, err := json.Marshal(notice)
	if err != nil {
		return "", fmt.Errorf("encode notice: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataDashboardID, notice.DashboardID)
	msg.Metadata.Set(MetadataEventType, notice.Type)

	if err := p.publish(ctx, msg); err != nil {
		return "", err
	}

	logging.Debug().
		Str("dashboard_id", notice.DashboardID).
		Str("type", notice.Type).
		Str("message_id", msg.UUID).
		Msg("change published")
	return msg.UUID, nil
}

// publish runs one publish through the breaker, bounded by the publish timeout.
func (p *Publisher) publish(ctx context.Context, msg *message.Message) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	msg.SetContext(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := p.breaker.Execute(func() (any, error) {
			return nil, p.publisher.Publish(p.topic, msg)
		})
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	switch {
	case err == nil:
		metrics.RecordBusPublish("success")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBusPublish("rejected")
		return fmt.Errorf("%w: %w", ErrBusUnavailable, err)
	default:
		metrics.RecordBusPublish("error")
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
}

// BreakerState returns the circuit breaker state: closed, half-open or open.
func (p *Publisher) BreakerState() string {
	return p.breaker.State().String()
}

// Close stops further publishes.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
