// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfstat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamlab/kperf/perffmt"
	"github.com/streamlab/kperf/perfscore"
	"github.com/streamlab/kperf/perfseries"
)

func TestFormatHTML(t *testing.T) {
	recs := testRecords()
	recs[0].Config.Set("num_producers", perffmt.IntValue(1))
	recs[2].Config.Set("num_producers", perffmt.IntValue(2))
	page := &Page{
		Report:     Aggregate(recs, Options{Now: fixedNow}),
		Board:      perfscore.Score(recs),
		Objective:  perfscore.Durability,
		Breakdowns: []Breakdown{{Dim: "acks", Levels: perfseries.Breakdown(recs, "acks")}},
		Heatmap:    perfseries.Heatmap(recs, "acks", "batch_size", perffmt.ThroughputMB),
		Scaling:    perfseries.Scaling(recs),
		Images:     []string{"knee.png"},
	}
	var buf bytes.Buffer
	require.NoError(t, FormatHTML(&buf, page))
	out := buf.String()

	assert.Contains(t, out, "<title>Performance report</title>")
	assert.Contains(t, out, "5 results: 3 producer, 2 consumer.")
	assert.Contains(t, out, "<td>producer highest throughput<td>acks=1|batch_size=16384")
	assert.Contains(t, out, "<h2>Scoring (durability)</h2>")
	assert.Contains(t, out, "<h2>By acks</h2>")
	assert.Contains(t, out, "<h2>throughput_mb by acks and batch_size</h2>")
	assert.Contains(t, out, "<h2>Producer scaling</h2>")
	assert.Contains(t, out, `<img src="knee.png"`)
}

func TestFormatHTMLEscapes(t *testing.T) {
	recs := []*perffmt.Record{producer("<b>all</b>", 1, 10, 10, perffmt.Value{})}
	var buf bytes.Buffer
	require.NoError(t, FormatHTML(&buf, &Page{Title: "a<b", Report: Aggregate(recs, Options{})}))
	assert.NotContains(t, buf.String(), "<b>all</b>")
	assert.Contains(t, buf.String(), "<title>a&lt;b</title>")
}

func TestFormatHTMLEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatHTML(&buf, &Page{Report: Aggregate(nil, Options{})}))
	assert.Contains(t, buf.String(), "0 results")
	assert.NotContains(t, buf.String(), "<h2>Scoring")
}
