// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

/*
Package config loads DashSync configuration with Koanf v2.

Sources are layered, later ones overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, then config.yaml, config.yml,
    /etc/dashsync/config.yaml, /etc/dashsync/config.yml)
 3. Environment variables, through an explicit name mapping

Only mapped environment variables are read, so unrelated variables in the
process environment never leak into configuration. Slice values such as
CORS_ORIGINS are comma-separated.

Example:

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

Sections:

  - client: realtime client (dashctl watch) connection and retry settings
  - server: HTTP listener, WebSocket hub limits
  - bus: change-event bus backend (memory or NATS)
  - security: CORS origins and rate limits
  - logging: zerolog level and format
*/
package config
