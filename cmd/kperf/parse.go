// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/streamlab/kperf/internal/sink"
	"github.com/streamlab/kperf/perffmt"
	"github.com/streamlab/kperf/perfproc"
)

func (a *app) parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [log-dir] [out-dir]",
		Short: "Extract structured records from benchmark logs",
		Long: `Parse reads every log of log-dir (default ` + defaultLogDir + `) and
writes the extracted records as JSON to out-dir (default ` + defaultParsedDir + `).`,
		Args: cobra.MaximumNArgs(2),
		RunE: a.runParse,
	}
	f := cmd.Flags()
	f.StringVar(&a.flags.pattern, "pattern", perffmt.DefaultPattern, "parse files matching glob `pattern`")
	f.BoolVarP(&a.flags.individual, "individual", "i", false, "write one JSON file per log")
	f.StringVarP(&a.flags.outputFile, "output-file", "f", "", "batch file `name` (default parsed_results_<time>.json)")
	return cmd
}

func (a *app) runParse(cmd *cobra.Command, args []string) error {
	logDir := arg(args, 0, a.cfg.Input, defaultLogDir)
	outDir := arg(args, 1, a.cfg.Output, defaultParsedDir)
	if err := a.apply(cmd, logDir); err != nil {
		return err
	}
	ctx := cmd.Context()

	files := &perffmt.Files{Dir: logDir, Pattern: a.cfg.Pattern, Now: a.now}
	log.Info().Str("dir", logDir).Int("files", files.Len()).Msg("parsing logs")
	var recs []*perffmt.Record
	for files.Scan() {
		switch it := files.Result().(type) {
		case *perffmt.Record:
			log.Debug().Str("file", it.FileName).Str("type", string(it.TestType)).Str("scenario", it.Scenario).Msg("parsed log")
			recs = append(recs, it)
		case error:
			logItem(it)
		}
	}
	if err := files.Err(); err != nil {
		return fmt.Errorf("log directory: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		log.Warn().Msg("no results parsed; check the log directory and file formats")
		return nil
	}

	if a.cfg.PerRecord {
		for _, rec := range recs {
			dest := sink.Join(outDir, rec.Stem()+".json")
			err := sink.WriteFile(ctx, dest, func(w io.Writer) error {
				return perffmt.WriteRecordJSON(w, rec)
			})
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "Saved %d individual JSON files to %s\n", len(recs), outDir)
	} else {
		name := a.flags.outputFile
		if name == "" {
			name = "parsed_results_" + a.now().Format("20060102_150405") + ".json"
		}
		dest := sink.Join(outDir, name)
		err := sink.WriteFile(ctx, dest, func(w io.Writer) error {
			return perffmt.WriteJSON(w, recs)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Parsed %d log files. Results saved to: %s\n", len(recs), dest)
	}

	producers, consumers := perfproc.Partition(recs)
	fmt.Fprintf(out, "  Producer tests: %d\n  Consumer tests: %d\n", len(producers), len(consumers))
	return nil
}
