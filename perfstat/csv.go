// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfstat

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/streamlab/kperf/perffmt"
	"github.com/streamlab/kperf/perfmath"
)

// A row is one CSV row as an ordered list of column/value pairs.
type row []cell

type cell struct {
	col, val string
}

func configCell(col string, cfg *perffmt.Config, keys ...string) cell {
	for _, k := range keys {
		if v, ok := cfg.Get(k); ok {
			return cell{col, csvValue(v)}
		}
	}
	return cell{col, ""}
}

func csvValue(v perffmt.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

func csvFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func meanStd(prefix string, s perfmath.Summary) []cell {
	if !s.Valid() {
		return []cell{{prefix + "_mean", ""}, {prefix + "_std", ""}}
	}
	return []cell{{prefix + "_mean", csvFloat(s.Mean)}, {prefix + "_std", csvFloat(s.Std)}}
}

func producerRow(g *Group) row {
	r := row{
		{"test_type", string(perffmt.Producer)},
		{"config_key", g.Key},
		configCell("acks", g.Config, "acks"),
		configCell("batch_size", g.Config, "batch_size"),
		configCell("linger_ms", g.Config, "linger_ms"),
		configCell("compression", g.Config, "compression_type", "compression"),
		configCell("record_size", g.Config, "record_size"),
		{"test_count", strconv.Itoa(g.Count)},
	}
	r = append(r, meanStd("throughput_mb", g.Stat("throughput_mb"))...)
	r = append(r, meanStd("latency_ms", g.Stat("avg_latency_ms"))...)
	return r
}

func consumerRow(g *Group) row {
	r := row{
		{"test_type", string(perffmt.Consumer)},
		{"config_key", g.Key},
		configCell("fetch_min_bytes", g.Config, "fetch_min_bytes"),
		configCell("max_poll_records", g.Config, "max_poll_records"),
		{"test_count", strconv.Itoa(g.Count)},
	}
	r = append(r, meanStd("throughput_mb", g.Stat("throughput_mb_sec"))...)
	return r
}

// WriteCSV writes one row per group of r, producers first. The header
// is the union of the rows' columns in first-seen order; a row lacking
// a column leaves it empty. With no groups, WriteCSV writes the header
// of both row kinds.
func WriteCSV(w io.Writer, r *Report) error {
	var rows []row
	for _, g := range r.Producer.Groups {
		rows = append(rows, producerRow(g))
	}
	for _, g := range r.Consumer.Groups {
		rows = append(rows, consumerRow(g))
	}

	var header []string
	colIdx := make(map[string]int)
	addCols := func(rw row) {
		for _, c := range rw {
			if _, ok := colIdx[c.col]; !ok {
				colIdx[c.col] = len(header)
				header = append(header, c.col)
			}
		}
	}
	if len(rows) == 0 {
		empty := &Group{Config: new(perffmt.Config)}
		addCols(producerRow(empty))
		addCols(consumerRow(empty))
	}
	for _, rw := range rows {
		addCols(rw)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rw := range rows {
		rec := make([]string, len(header))
		for _, c := range rw {
			rec[colIdx[c.col]] = c.val
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
