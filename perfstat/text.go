// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfstat

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/streamlab/kperf/internal/texttab"
	"github.com/streamlab/kperf/perfunit"
)

// FormatText writes a human-readable summary of r to w: the record
// counts, the best picks, and a table of every group.
func FormatText(w io.Writer, r *Report) error {
	bar := strings.Repeat("=", 60)
	fmt.Fprintf(w, "%s\nPERFORMANCE AGGREGATION SUMMARY\n%s\n", bar, bar)
	fmt.Fprintf(w, "\nTotal Results: %d\n", r.Total)
	fmt.Fprintf(w, "  Producer tests: %d\n", r.Producers)
	fmt.Fprintf(w, "  Consumer tests: %d\n", r.Consumers)
	fmt.Fprintf(w, "  Unique producer configs: %d\n", len(r.Producer.Groups))
	fmt.Fprintf(w, "  Unique consumer configs: %d\n", len(r.Consumer.Groups))

	best := func(title string, g *Group, metric string) {
		if g == nil {
			return
		}
		s := g.Stat(metric)
		fmt.Fprintf(w, "\n--- %s ---\n", title)
		fmt.Fprintf(w, "  Config: %s\n", g.Key)
		fmt.Fprintf(w, "  Mean: %s\n", perfunit.Format(metric, orZero(s.Mean, s.Valid())))
		fmt.Fprintf(w, "  Std Dev: %.2f\n", orZero(s.Std, s.Valid()))
		fmt.Fprintf(w, "  Test Count: %d\n", g.Count)
	}
	best("Best Producer (Throughput)", r.BestProducerThroughput, "throughput_mb")
	best("Best Producer (Latency)", r.BestProducerLatency, "avg_latency_ms")
	best("Best Consumer (Throughput)", r.BestConsumerThroughput, "throughput_mb_sec")
	fmt.Fprintf(w, "\n%s\n", bar)

	for _, c := range []struct {
		coll    *Collection
		tracked []Tracked
	}{
		{r.Producer, ProducerMetrics},
		{r.Consumer, ConsumerMetrics},
	} {
		if len(c.coll.Groups) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s groups:\n", c.coll.TestType)
		if err := groupTable(c.coll, c.tracked).Format(w); err != nil {
			return err
		}
	}
	return nil
}

func orZero(v float64, ok bool) float64 {
	if !ok {
		return 0
	}
	return v
}

func groupTable(c *Collection, tracked []Tracked) *texttab.Table {
	t := new(texttab.Table)
	t.Row().Cell("config").Cell("n", texttab.Right)
	for _, m := range tracked {
		t.Cell(m.Name, texttab.Right).Cell("±", texttab.Right)
	}
	t.Rule()
	for _, g := range c.Groups {
		t.Row().Cell(g.Key).Cell(strconv.Itoa(g.Count), texttab.Right)
		for _, m := range tracked {
			s := g.Stat(m.Name)
			if !s.Valid() {
				t.Cell("-", texttab.Right).Cell("", texttab.Right)
				continue
			}
			t.Cell(perfunit.Format(m.Name, s.Mean), texttab.Right)
			t.Cell(pctRange(s.Mean, s.Std), texttab.Right)
		}
	}
	return t
}

// pctRange renders std as a percentage of mean.
func pctRange(mean, std float64) string {
	if mean == 0 {
		return "?"
	}
	return fmt.Sprintf("%.0f%%", 100*std/mean)
}
