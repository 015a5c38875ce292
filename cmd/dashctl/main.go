// DashSync - Live Dashboard Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashsync

// Command dashctl watches and publishes live dashboard changes.
//
//	dashctl watch --dashboard ops-overview
//	dashctl publish --dashboard ops-overview --type widget:deleted --data '{"widget_id":"w1"}'
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/dashsync/internal/config"
	"github.com/tomtom215/dashsync/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "dashctl",
		Short:   "Watch and publish live dashboard changes",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Init(logging.Config{
				Level:     opts.logLevel,
				Format:    opts.logFormat,
				Timestamp: true,
		Service:   "dashctl",
				Output:    cmd.ErrOrStderr(),
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file (default: config.yaml or CONFIG_PATH)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "console", "log format: json or console")

	rootCmd.AddCommand(
		watchCmd(opts),
		publishCmd(opts),
	)
	return rootCmd
}

// loadConfig loads configuration from --config when set, otherwise from the
// default search paths. Environment variables override both.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.LoadWithKoanf()
}
