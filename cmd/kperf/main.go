// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Kperf extracts, aggregates and scores message-broker producer and
// consumer benchmark logs.
//
// Usage:
//
//	kperf parse [log-dir] [out-dir]
//	kperf aggregate [parsed-dir] [out-file]
//	kperf score [parsed-dir]
//	kperf report [parsed-dir] [out.html]
//	kperf store [parsed-dir] --db driver:dsn
//	kperf serve --db driver:dsn [--addr :8080]
//	kperf version
//
// The parse command reads every *.log file of log-dir, extracts one
// structured record per recognized log, and writes the records as JSON
// to out-dir, either as a single batch file or one file per log
// (--individual).
//
// The remaining commands read the structured files of a directory, or
// the records of a database selected with --db and --query, and
// filter them with --filter. A filter is a list of key:value words;
// a record matches if every key has the given value.
//
// The aggregate command groups records by configuration and writes a
// JSON, CSV or text summary. The score command ranks producer runs
// for an objective (max_throughput, balanced, or durability). The
// report command writes an HTML page with the aggregation, the
// scoring board, per-setting breakdowns, and optional PNG charts.
//
// The store command uploads records into a database, and the serve
// command runs an HTTP record store over one.
//
// Outputs may be local paths, gs://bucket/object URLs, or - for
// standard output.
//
// Settings may also be read from a YAML file given with --config.
// Flags override the file.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"

	"github.com/streamlab/kperf/internal/config"
)

var version = "dev"

// An app holds state shared by all commands of one invocation.
type app struct {
	configPath string
	verbose    bool

	flags flagValues
	cfg   *config.Config

	// now is the clock for file names and parse times.
	now func() time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	rootCmd := &cobra.Command{
		Use:   "kperf",
		Short: "Extract, aggregate and score broker benchmark logs",
		Long: `kperf turns the text output of producer and consumer benchmark
tools into structured records, groups them by configuration, and
scores producer runs for throughput, latency and durability.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(a.verbose)
			return a.loadConfig()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "read settings from YAML `file`")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		a.parseCmd(),
		a.aggregateCmd(),
		a.scoreCmd(),
		a.reportCmd(),
		a.storeCmd(),
		a.serveCmd(),
		versionCmd(),
	)
	return rootCmd
}

func setupLogging(verbose bool) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func (a *app) loadConfig() error {
	a.cfg = config.Default()
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
		log.Debug().Str("path", a.configPath).Stringer("config", cfg).Msg("loaded config")
	}
	if a.verbose {
		a.cfg.Verbose = true
	}
	return nil
}

// arg returns args[i], or def if there are not enough args. The
// positional argument wins over a value set in the config file, which
// wins over def.
func arg(args []string, i int, fromConfig, def string) string {
	switch {
	case i < len(args):
		return args[i]
	case fromConfig != "":
		return fromConfig
	}
	return def
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("kperf failed")
		os.Exit(1)
	}
}
