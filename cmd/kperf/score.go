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
	"github.com/streamlab/kperf/perfscore"
	"github.com/streamlab/kperf/perfseries"
)

func (a *app) scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [parsed-dir] [out-file]",
		Short: "Rank producer runs by objective",
		Long: `Score normalizes the throughput and latency of every producer run
and ranks the runs for an objective. The board is written to out-file,
or to standard output by default.`,
		Args: cobra.MaximumNArgs(2),
		RunE: a.runScore,
	}
	f := cmd.Flags()
	f.StringVar(&a.flags.format, "format", config.FormatText, "output `format`: text or json")
	f.StringVar(&a.flags.objective, "objective", perfscore.Balanced.String(), "rank by `objective`: max_throughput, balanced or durability")
	f.IntVar(&a.flags.top, "top", 5, "list the top `n` runs (0 for all)")
	f.StringVar(&a.flags.chart, "chart", "", "write a latency vs throughput PNG chart to `path`")
	a.recordFlags(cmd, true)
	return cmd
}

func (a *app) runScore(cmd *cobra.Command, args []string) error {
	in := arg(args, 0, a.cfg.Input, defaultParsedDir)
	dest := arg(args, 1, "", sink.Stdout)
	if err := a.apply(cmd, in); err != nil {
		return err
	}
	// Unlike aggregate, the board defaults to text.
	if a.cfg.Format == "" {
		a.cfg.Format = config.FormatText
	}
	switch a.cfg.Format {
	case config.FormatText, config.FormatJSON:
	default:
		return fmt.Errorf("score cannot write format %q", a.cfg.Format)
	}
	obj, err := perfscore.ParseObjective(a.cfg.Score.Objective)
	if err != nil {
		return err
	}
	recs, err := a.loadRecords(in, true)
	if err != nil {
		return err
	}

	board := perfscore.Score(recs)
	log.Debug().Int("rows", len(board.Rows)).Float64("max_throughput", board.MaxThroughput).Float64("max_latency", board.MaxLatency).Msg("scored")
	if len(board.Rows) == 0 {
		log.Warn().Msg("no producer results to score")
	}

	err = sink.WriteFile(cmd.Context(), dest, func(w io.Writer) error {
		if a.cfg.Format == config.FormatJSON {
			return perfscore.WriteJSON(w, board)
		}
		return perfscore.FormatText(w, board, a.cfg.Score.Top, obj)
	})
	if err != nil {
		return err
	}
	_, err = a.writeCharts(cmd, board, nil)
	return err
}

// writeCharts writes the configured PNG charts. A nil board or scaling
// report skips the corresponding chart. It returns the destinations
// written.
func (a *app) writeCharts(cmd *cobra.Command, board *perfscore.Board, scaling *perfseries.ScalingReport) ([]string, error) {
	size := perfseries.ChartSize{Width: a.cfg.Chart.Width, Height: a.cfg.Chart.Height, DPI: a.cfg.Chart.DPI}
	var written []string
	for _, c := range []struct {
		dest   string
		skip   bool
		render func(io.Writer) error
	}{
		{a.cfg.Chart.Path, board == nil || len(board.Rows) == 0, func(w io.Writer) error {
			return perfseries.KneeChart(w, board, size)
		}},
		{a.cfg.Chart.ScalingPath, scaling == nil || len(scaling.Points) == 0, func(w io.Writer) error {
			return perfseries.ScalingChart(w, scaling, size)
		}},
	} {
		if c.dest == "" {
			continue
		}
		if c.skip {
			log.Warn().Str("chart", c.dest).Msg("nothing to chart")
			continue
		}
		if err := sink.WriteFile(cmd.Context(), c.dest, c.render); err != nil {
			return written, fmt.Errorf("chart %s: %w", c.dest, err)
		}
		log.Info().Str("chart", c.dest).Msg("wrote chart")
		written = append(written, c.dest)
	}
	return written, nil
}
