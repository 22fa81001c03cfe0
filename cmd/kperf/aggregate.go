// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/streamlab/kperf/internal/config"
	"github.com/streamlab/kperf/internal/sink"
	"github.com/streamlab/kperf/perfstat"
)

func (a *app) aggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate [parsed-dir] [out-file]",
		Short: "Group records by configuration and summarize them",
		Long: `Aggregate reads the structured records of parsed-dir (default
` + defaultParsedDir + `), groups them by configuration, and writes the
summary to out-file (default ` + defaultAggregated + `).`,
		Args: cobra.MaximumNArgs(2),
		RunE: a.runAggregate,
	}
	f := cmd.Flags()
	f.StringVar(&a.flags.format, "format", config.FormatJSON, "output `format`: json, csv, text or html")
	f.BoolVarP(&a.flags.printSummary, "print-summary", "p", false, "print a text summary to stdout")
	f.BoolVar(&a.flags.dropZeros, "drop-zeros", false, "treat zero measurements as missing")
	a.recordFlags(cmd, true)
	return cmd
}

func (a *app) runAggregate(cmd *cobra.Command, args []string) error {
	in := arg(args, 0, a.cfg.Input, defaultParsedDir)
	dest := arg(args, 1, a.cfg.Output, defaultAggregated)
	if err := a.apply(cmd, in); err != nil {
		return err
	}
	recs, err := a.loadRecords(in, true)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		log.Warn().Msg("no results loaded; the summary will be empty")
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %d test results\n", len(recs))

	rep := perfstat.Aggregate(recs, perfstat.Options{DropZeros: a.cfg.DropZeros, Now: a.now})
	log.Debug().Int("producer_groups", len(rep.Producer.Groups)).Int("consumer_groups", len(rep.Consumer.Groups)).Msg("aggregated")

	err = sink.WriteFile(cmd.Context(), dest, func(w io.Writer) error {
		switch a.cfg.Format {
		case config.FormatCSV:
			return perfstat.WriteCSV(w, rep)
		case config.FormatText:
			return perfstat.FormatText(w, rep)
		case config.FormatHTML:
			return perfstat.FormatHTML(w, &perfstat.Page{Report: rep})
		}
		return perfstat.WriteJSON(w, rep)
	})
	if err != nil {
		return err
	}
	if dest != sink.Stdout {
		fmt.Fprintf(out, "Aggregated results saved to: %s\n", dest)
	}

	if a.flags.printSummary {
		return perfstat.FormatText(out, rep)
	}
	return nil
}
