// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package eventbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/logging"
)

// Backend names accepted in config.BusConfig.Backend.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// Bus is the publisher/subscriber pair for the configured backend, plus the
// embedded NATS server when one was started.
type Bus struct {
	backend    string
	topic      string
	publisher  message.Publisher
	subscriber message.Subscriber
	embedded   *EmbeddedServer

	mu     sync.RWMutex
	closed bool
}

// NewLogger adapts the zerolog logger for Watermill.
func NewLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger())
}

// New builds the bus for cfg.Backend.
func New(cfg config.BusConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = NewLogger()
	}

	switch cfg.Backend {
	case BackendMemory, "":
		pubSub := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		}, logger)
		return &Bus{
			backend:    BackendMemory,
			topic:      cfg.Topic,
			publisher:  pubSub,
			subscriber: pubSub,
		}, nil

	case BackendNATS:
		return newNATSBus(cfg, logger)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func newNATSBus(cfg config.BusConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	bus := &Bus{backend: BackendNATS, topic: cfg.Topic}

	url := cfg.URL
	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer(cfg.EmbeddedHost, cfg.EmbeddedPort)
		if err != nil {
			return nil, err
		}
		bus.embedded = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("embedded NATS server started")
	}

	natsOpts := natsOptions(cfg, logger)

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		bus.shutdownEmbedded()
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	bus.publisher = pub

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		_ = pub.Close()
		bus.shutdownEmbedded()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}
	bus.subscriber = sub

	return bus, nil
}

// natsOptions configures reconnection and a bounded flush for publishes.
func natsOptions(cfg config.BusConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("dashsync"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.FlusherTimeout(cfg.PublishTimeout),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}
}

// Backend returns the active backend name.
func (b *Bus) Backend() string {
	return b.backend
}

// Topic returns the subject changes are published on.
func (b *Bus) Topic() string {
	return b.topic
}

// Publisher returns the underlying Watermill publisher.
func (b *Bus) Publisher() message.Publisher {
	return b.publisher
}

// Subscriber returns the underlying Watermill subscriber.
func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

// Healthy reports whether the bus is open and, if embedded, its server runs.
func (b *Bus) Healthy() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	return b.embedded == nil || b.embedded.IsRunning()
}

// Close shuts down the subscriber, publisher and embedded server.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}
	// gochannel uses one value for both roles.
	if any(b.publisher) != any(b.subscriber) {
		if err := b.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	b.shutdownEmbedded()
	return errors.Join(errs...)
}

func (b *Bus) shutdownEmbedded() {
	if b.embedded != nil {
		b.embedded.Shutdown()
	}
}
