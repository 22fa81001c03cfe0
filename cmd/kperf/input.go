// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/streamlab/kperf/internal/config"
	"github.com/streamlab/kperf/perffmt"
	"github.com/streamlab/kperf/perfproc"
	"github.com/streamlab/kperf/storage/db"
)

// Default locations, relative to the working directory.
const (
	defaultLogDir     = "./results/raw_logs"
	defaultParsedDir  = "./results/parsed_data"
	defaultAggregated = "./results/aggregated_results.json"
	defaultReport     = "./results/reports/kafka_perf_report.html"
)

// flagValues are the raw values of every command's flags. Only flags
// the user set are copied into the config.
type flagValues struct {
	db, query, filter string
	format            string
	pattern           string
	outputFile        string
	objective         string
	chart             string
	scalingChart      string
	replace           string

	top          int
	dropZeros    bool
	individual   bool
	printSummary bool
}

// recordFlags adds the flags that select the records a command reads.
func (a *app) recordFlags(cmd *cobra.Command, withDB bool) {
	f := cmd.Flags()
	flags := &a.flags
	if withDB {
		f.StringVar(&flags.db, "db", "", "read records from database `driver:dsn` instead of a directory")
		f.StringVar(&flags.query, "query", "", "select database records with `key:value` words")
	}
	f.StringVar(&flags.filter, "filter", "", "keep only records matching `key:value` words")
}

// apply copies the flags set on cmd into a.cfg and validates the
// result.
func (a *app) apply(cmd *cobra.Command, input string) error {
	f := cmd.Flags()
	flags := &a.flags
	c := a.cfg
	if f.Changed("db") {
		d, err := config.ParseDB(flags.db)
		if err != nil {
			return err
		}
		c.DB.Driver, c.DB.DSN = d.Driver, d.DSN
	}
	if f.Changed("query") {
		c.DB.Query = flags.query
	}
	if f.Changed("filter") {
		c.Filter = flags.filter
	}
	if f.Changed("format") {
		c.Format = flags.format
	}
	if f.Changed("pattern") {
		c.Pattern = flags.pattern
	}
	if f.Changed("individual") {
		c.PerRecord = flags.individual
	}
	if f.Changed("drop-zeros") {
		c.DropZeros = flags.dropZeros
	}
	if f.Changed("objective") {
		c.Score.Objective = flags.objective
	}
	if f.Changed("top") {
		c.Score.Top = flags.top
	}
	if f.Changed("chart") {
		c.Chart.Path = flags.chart
	}
	if f.Changed("scaling-chart") {
		c.Chart.ScalingPath = flags.scalingChart
	}
	c.Input = input
	if err := c.Validate(); err != nil {
		return err
	}
	log.Debug().Stringer("config", c).Str("command", cmd.Name()).Msg("resolved config")
	return nil
}

// loadRecords returns the records of dir, or of the configured
// database if there is one, that match the configured filter.
// Unreadable files are logged and skipped.
func (a *app) loadRecords(dir string, fromDB bool) ([]*perffmt.Record, error) {
	var recs []*perffmt.Record
	if fromDB && a.cfg.DB.Enabled() {
		d, err := db.OpenSQL(a.cfg.DB.Driver, a.cfg.DB.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		defer d.Close()
		recs, err = d.Records(a.cfg.DB.Query)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", a.cfg.DB.Driver).Str("query", a.cfg.DB.Query).Int("records", len(recs)).Msg("read records from database")
	} else {
		var problems []error
		var err error
		recs, problems, err = perffmt.LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("input directory: %w", err)
		}
		for _, p := range problems {
			log.Warn().Err(p).Msg("skipped file")
		}
		log.Info().Str("dir", dir).Int("records", len(recs)).Int("skipped", len(problems)).Msg("loaded records")
	}

	if a.cfg.Filter != "" {
		flt, err := perfproc.NewFilter(a.cfg.Filter)
		if err != nil {
			return nil, err
		}
		n := len(recs)
		recs = flt.Apply(recs)
		log.Debug().Str("filter", a.cfg.Filter).Int("before", n).Int("after", len(recs)).Msg("filtered records")
	}
	return recs, nil
}

// logItem logs a log file the extractor could not turn into a record.
func logItem(err error) {
	if errors.Is(err, perffmt.ErrSkip) {
		log.Debug().Err(err).Msg("skipped log")
		return
	}
	log.Warn().Err(err).Msg("failed to parse log")
}
