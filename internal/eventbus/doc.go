// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

/*
Package eventbus carries published dashboard changes to every room hub.

A change enters through the HTTP API as a models.ChangeNotice, is published
on the configured topic by Publisher, and is picked up by the Forwarder of
each server instance, which hands it to the local room hub for delivery to
the dashboard's room.

Backends:

  - memory: Watermill's gochannel pub/sub. Single process only.
  - nats: watermill-nats over core NATS (JetStream disabled). Subscribers do
    not use a queue group, so every instance receives every change and fans
    it out to its own members. An embedded nats-server can be started for
    single-node deployments.

Publishes go through a gobreaker circuit breaker; while it is open,
PublishChange fails fast with ErrBusUnavailable.

Malformed notices are acknowledged and dropped by the Forwarder; they are
never redelivered.
*/
package eventbus
