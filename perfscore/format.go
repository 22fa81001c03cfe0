// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfscore

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/streamlab/kperf/internal/texttab"
	"github.com/streamlab/kperf/perfproc"
	"github.com/streamlab/kperf/perfunit"
)

type rowJSON struct {
	ConfigKey        string             `json:"config_key"`
	Scenario         string             `json:"scenario"`
	Source           string             `json:"source,omitempty"`
	Acks             string             `json:"acks,omitempty"`
	ThroughputMB     float64            `json:"throughput_mb"`
	AvgLatencyMS     float64            `json:"avg_latency_ms"`
	P99MS            *float64           `json:"p99_ms"`
	ThroughputScore  float64            `json:"throughput_score"`
	LatencyScore     float64            `json:"latency_score"`
	ConsistencyScore float64            `json:"consistency_score"`
	Scores           map[string]float64 `json:"scores"`
	Zone             Zone               `json:"zone"`
}

// MarshalJSON encodes r with its record's group key and scenario.
func (r *Row) MarshalJSON() ([]byte, error) {
	j := rowJSON{
		ConfigKey:        perfproc.GroupKey(r.Record.Config),
		Scenario:         r.Record.Scenario,
		Source:           r.Record.Source,
		Acks:             r.Acks(),
		ThroughputMB:     r.ThroughputMB,
		AvgLatencyMS:     r.AvgLatencyMS,
		ThroughputScore:  r.ThroughputScore,
		LatencyScore:     r.LatencyScore,
		ConsistencyScore: r.ConsistencyScore,
		Scores:           make(map[string]float64),
		Zone:             r.Zone(),
	}
	if r.HasP99 {
		p := r.P99MS
		j.P99MS = &p
	}
	for _, o := range Objectives {
		j.Scores[o.String()] = r.Score(o)
	}
	return json.Marshal(j)
}

type boardJSON struct {
	MaxThroughput float64         `json:"max_throughput"`
	MaxLatency    float64         `json:"max_latency"`
	Best          map[string]*Row `json:"best"`
	Knee          *Row            `json:"knee"`
	Rows          []*Row          `json:"rows"`
}

// WriteJSON writes b to w as an indented document.
func WriteJSON(w io.Writer, b *Board) error {
	j := boardJSON{
		MaxThroughput: b.MaxThroughput,
		MaxLatency:    b.MaxLatency,
		Best: map[string]*Row{
			"throughput": b.BestThroughput,
			"latency":    b.BestLatency,
		},
		Knee: Knee(b.Rows),
		Rows: b.Rows,
	}
	for _, o := range Objectives {
		j.Best[o.String()] = b.Best(o)
	}
	if j.Rows == nil {
		j.Rows = []*Row{}
	}
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// FormatText writes the best picks of b and a table of its top n rows
// for objective o.
func FormatText(w io.Writer, b *Board, n int, o Objective) error {
	fmt.Fprintf(w, "Scored producer records: %d\n", len(b.Rows))
	pick := func(title string, r *Row) {
		if r == nil {
			fmt.Fprintf(w, "  %-16s none\n", title+":")
			return
		}
		fmt.Fprintf(w, "  %-16s %s (%s, %s)\n", title+":", perfproc.GroupKey(r.Record.Config),
			perfunit.Format("throughput_mb", r.ThroughputMB), perfunit.Format("avg_latency_ms", r.AvgLatencyMS))
	}
	pick("throughput", b.BestThroughput)
	pick("latency", b.BestLatency)
	for _, obj := range Objectives {
		pick(obj.String(), b.Best(obj))
	}
	pick("knee", Knee(b.Rows))
	fmt.Fprintln(w)

	t := new(texttab.Table)
	t.Row().Cell("#", texttab.Right).Cell("config").Cell("throughput", texttab.Right).
		Cell("latency", texttab.Right).Cell(o.String(), texttab.Right).Cell("zone").Rule()
	for i, r := range b.Top(n, o) {
		t.Row().Cell(strconv.Itoa(i+1), texttab.Right).
			Cell(perfproc.GroupKey(r.Record.Config)).
			Cell(perfunit.Format("throughput_mb", r.ThroughputMB), texttab.Right).
			Cell(perfunit.Format("avg_latency_ms", r.AvgLatencyMS), texttab.Right).
			Cell(perfunit.Format("score", r.Score(o)), texttab.Right).
			Cell(string(r.Zone()))
	}
	return t.Format(w)
}
