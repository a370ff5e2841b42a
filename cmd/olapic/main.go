// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

// Package main is a command line client for the Olapic API, built on the
// SDK. It is meant for manual exploration of a customer account.
//
// # Commands
//
//	olapic [global flags] connect
//	olapic [global flags] list   [-scope customer|stream|category|uploader] [-id ID] [-tag KEY] [-sort S] [-count N] [-pages N]
//	olapic [global flags] show   -kind customer|media|stream|category|uploader|widget [-id ID]
//	olapic [global flags] upload -file PATH -caption TEXT [-lat L -lon L] [-stream ID,ID]
//
// # Configuration
//
// Settings come from the built-in defaults, then olapic.yaml (or the file
// named by -config or OLAPIC_CONFIG_PATH), then the environment:
//   - OLAPIC_AUTH_KEY: customer auth key (required)
//   - OLAPIC_BASE_URL: API root
//   - OLAPIC_MEDIA_PER_PAGE, OLAPIC_SORTING: list defaults
//   - LOG_LEVEL: log level (-debug forces debug)
//
// Results are printed to stdout; logs go to stderr in console format.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/olapic-go/internal/config"
	"github.com/tomtom215/olapic-go/internal/logging"
	"github.com/tomtom215/olapic-go/internal/olapic"
)

var (
	flags      = flag.NewFlagSet("olapic", flag.ExitOnError)
	configPath string
	debug      bool
	logURLs    bool
)

// command runs one subcommand with its own arguments.
type command func(ctx context.Context, client *olapic.Client, args []string) error

var commands = map[string]command{
	"connect": runConnect,
	"list":    runList,
	"show":    runShow,
	"upload":  runUpload,
}

func init() {
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), `Usage: olapic [flags] <command> [command flags]

Commands:
	connect  authenticate and print the customer
	list     page through a media collection
	show     print one entity as JSON
	upload   upload an image with the customer's default uploader

Flags:
`)
		flags.PrintDefaults()
	}
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.BoolVar(&logURLs, "log-urls", false, "log every requested URL")
}

func main() {
	_ = flags.Parse(os.Args[1:])
	if flags.NArg() < 1 {
		flags.Usage()
		os.Exit(2)
	}
	run, ok := commands[flags.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", flags.Arg(0))
		flags.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logging.Init(logging.Config{
		Level:     level,
		Format:    "console",
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	client, err := olapic.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create client")
	}
	if logURLs {
		client.StartLoggingURLs()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logging.ContextWithNewCorrelationID(ctx)

	if err := run(ctx, client, flags.Args()[1:]); err != nil {
		logging.Error().Err(err).Str("command", flags.Arg(0)).Msg("Command failed")
		cancel()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
