// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

package eventbus

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/dashsync/internal/logging"
	"github.com/tomtom215/dashsync/internal/metrics"
	"github.com/tomtom215/dashsync/internal/models"
)

// Broadcaster delivers an envelope to the members of one dashboard room.
// *roomhub.Hub satisfies it.
type Broadcaster interface {
	BroadcastToRoom(ctx context.Context, dashboardID string, env models.Envelope) error
}

// Forwarder consumes change notices from the bus and hands them to the
// local room hub.
type Forwarder struct {
	subscriber message.Subscriber
	topic      string
	hub        Broadcaster
	subscribed atomic.Bool
}

// NewForwarder creates a forwarder reading topic from sub.
func NewForwarder(sub message.Subscriber, topic string, hub Broadcaster) *Forwarder {
	return &Forwarder{subscriber: sub, topic: topic, hub: hub}
}

// Serve subscribes and forwards until ctx is canceled or the subscription
// ends. It returns ctx.Err() on cancellation and ErrSubscriptionClosed when
// the subscriber closes first.
func (f *Forwarder) Serve(ctx context.Context) error {
	messages, err := f.subscriber.Subscribe(ctx, f.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", f.topic, err)
	}
	f.subscribed.Store(true)
	defer f.subscribed.Store(false)
	logging.Info().Str("topic", f.topic).Msg("change forwarder subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrSubscriptionClosed
			}
			f.handle(ctx, msg)
		}
	}
}

// Subscribed reports whether Serve currently holds a subscription.
func (f *Forwarder) Subscribed() bool {
	return f.subscribed.Load()
}

// handle forwards one message. Poison messages are acked so they are not
// redelivered; a message interrupted by shutdown is nacked.
func (f *Forwarder) handle(ctx context.Context, msg *message.Message) {
	dashboardID, env, err := decodeNotice(msg.Payload)
	if err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping malformed change notice")
		metrics.RecordBusForward("malformed")
		msg.Ack()
		return
	}

	if err := f.hub.BroadcastToRoom(ctx, dashboardID, env); err != nil {
		logging.Warn().Err(err).
			Str("message_id", msg.UUID).
			Str("dashboard_id", dashboardID).
			Msg("failed to forward change")
		metrics.RecordBusForward("failed")
		msg.Nack()
		return
	}

	metrics.RecordBusForward("forwarded")
	msg.Ack()
}

// decodeNotice validates a bus payload and re-stamps its event with the
// notice's dashboard so room scoping holds even for unscoped publishers.
func decodeNotice(payload []byte) (string, models.Envelope, error) {
	var notice models.ChangeNotice
	if err := json.Unmarshal(payload, &notice); err != nil {
		return "", models.Envelope{}, fmt.Errorf("decode notice: %w", err)
	}
	if notice.DashboardID == "" {
		return "", models.Envelope{}, fmt.Errorf("%w: dashboard_id is required", ErrInvalidNotice)
	}

	event, err := models.DecodeChangeEvent(notice.Type, notice.Data)
	if err != nil {
		return "", models.Envelope{}, err
	}
	if room := event.Room(); room != "" && room != notice.DashboardID {
		return "", models.Envelope{}, fmt.Errorf("%w: event scoped to %q, notice to %q",
			ErrInvalidNotice, room, notice.DashboardID)
	}

	env, err := models.ChangeEnvelope(event.Scoped(notice.DashboardID))
	if err != nil {
		return "", models.Envelope{}, err
	}
	return notice.DashboardID, env, nil
}
