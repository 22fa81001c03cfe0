// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/streamlab/kperf/internal/sink"
	"github.com/streamlab/kperf/perffmt"
	"github.com/streamlab/kperf/perfscore"
	"github.com/streamlab/kperf/perfseries"
	"github.com/streamlab/kperf/perfstat"
)

// reportDims are the configuration dimensions broken down in reports.
var reportDims = []string{"acks", "batch_size", "linger_ms", "compression_type", "record_size", "num_producers"}

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [parsed-dir] [out.html]",
		Short: "Write an HTML report with optional PNG charts",
		Long: `Report aggregates and scores the records of parsed-dir and writes
an HTML page (default ` + defaultReport + `) with the best
configurations, per-setting breakdowns, an acks by batch size heatmap,
and producer scaling.`,
		Args: cobra.MaximumNArgs(2),
		RunE: a.runReport,
	}
	f := cmd.Flags()
	f.StringVar(&a.flags.objective, "objective", "balanced", "rank by `objective`: max_throughput, balanced or durability")
	f.IntVar(&a.flags.top, "top", 5, "list the top `n` runs (0 for all)")
	f.BoolVar(&a.flags.dropZeros, "drop-zeros", false, "treat zero measurements as missing")
	f.StringVar(&a.flags.chart, "chart", "", "write a latency vs throughput PNG chart to `path`")
	f.StringVar(&a.flags.scalingChart, "scaling-chart", "", "write a producer scaling PNG chart to `path`")
	a.recordFlags(cmd, true)
	return cmd
}

func (a *app) runReport(cmd *cobra.Command, args []string) error {
	in := arg(args, 0, a.cfg.Input, defaultParsedDir)
	dest := arg(args, 1, a.cfg.Output, defaultReport)
	if err := a.apply(cmd, in); err != nil {
		return err
	}
	obj, err := perfscore.ParseObjective(a.cfg.Score.Objective)
	if err != nil {
		return err
	}
	recs, err := a.loadRecords(in, true)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		log.Warn().Msg("no results loaded; the report will be empty")
	}

	page := &perfstat.Page{
		Title:     "Broker performance report",
		Report:    perfstat.Aggregate(recs, perfstat.Options{DropZeros: a.cfg.DropZeros, Now: a.now}),
		Board:     perfscore.Score(recs),
		Objective: obj,
		Top:       a.cfg.Score.Top,
		Heatmap:   perfseries.Heatmap(recs, "acks", "batch_size", perffmt.ThroughputMB),
		Scaling:   perfseries.Scaling(recs),
	}
	for _, dim := range reportDims {
		if levels := perfseries.Breakdown(recs, dim); len(levels) > 0 {
			page.Breakdowns = append(page.Breakdowns, perfstat.Breakdown{Dim: dim, Levels: levels})
		}
	}

	charts, err := a.writeCharts(cmd, page.Board, page.Scaling)
	if err != nil {
		return err
	}
	for _, c := range charts {
		page.Images = append(page.Images, imageRef(dest, c))
	}

	err = sink.WriteFile(cmd.Context(), dest, func(w io.Writer) error {
		return perfstat.FormatHTML(w, page)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report saved to: %s\n", dest)
	return nil
}

// imageRef returns the URL of the chart at dest as seen from the page
// at report.
func imageRef(report, chart string) string {
	switch {
	case sink.IsGCS(report) && sink.IsGCS(chart):
		dir := report[:strings.LastIndexByte(report, '/')+1]
		if strings.HasPrefix(chart, dir) {
			return strings.TrimPrefix(chart, dir)
		}
	case !sink.IsGCS(report) && !sink.IsGCS(chart):
		if rel, err := filepath.Rel(filepath.Dir(report), chart); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return chart
}
