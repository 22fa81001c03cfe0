// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perfseries slices producer records along configuration
// dimensions: per-value breakdowns, two-dimensional heatmaps, and
// throughput scaling with the number of producers.
package perfseries

import (
	"math"
	"sort"
	"strconv"

	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"

	"github.com/streamlab/kperf/perffmt"
)

// dimAliases are fallback configuration keys for a dimension.
var dimAliases = map[string][]string{
	"compression_type": {"compression"},
	"compression":      {"compression_type"},
}

// dimValue returns rec's value for configuration dimension dim.
func dimValue(rec *perffmt.Record, dim string) (string, bool) {
	for _, k := range append([]string{dim}, dimAliases[dim]...) {
		if v, ok := rec.Get(k); ok && !v.IsNull() {
			return v.String(), true
		}
	}
	return "", false
}

// dimLess orders dimension values numerically when both are numbers
// and lexically otherwise.
func dimLess(a, b string) bool {
	x, errx := strconv.ParseFloat(a, 64)
	y, erry := strconv.ParseFloat(b, 64)
	switch {
	case errx == nil && erry == nil:
		if x != y {
			return x < y
		}
	case errx == nil:
		return true
	case erry == nil:
		return false
	}
	return a < b
}

func producers(recs []*perffmt.Record) []*perffmt.Record {
	var out []*perffmt.Record
	for _, rec := range recs {
		if rec.TestType == perffmt.Producer {
			out = append(out, rec)
		}
	}
	return out
}

// metric returns a metric of rec, treating a missing value as 0.
func metric(rec *perffmt.Record, name string) float64 {
	v, _ := rec.Metric(name)
	return v
}

// A Level is the summary of the producer records sharing one value of
// a configuration dimension.
type Level struct {
	Value string
	Runs  int

	MeanThroughputMB float64
	MeanLatencyMS    float64
	MaxThroughputMB  float64
}

// Breakdown summarizes the producer records of recs by their value
// of configuration dimension dim, such as "acks" or "batch_size".
// Records without the dimension are left out. Missing metrics count
// as 0. Levels are in ascending order of value.
func Breakdown(recs []*perffmt.Record, dim string) []Level {
	var vals []string
	var tps, lats []float64
	for _, rec := range producers(recs) {
		v, ok := dimValue(rec, dim)
		if !ok {
			continue
		}
		vals = append(vals, v)
		tps = append(tps, metric(rec, perffmt.ThroughputMB))
		lats = append(lats, metric(rec, perffmt.AvgLatencyMS))
	}
	if len(vals) == 0 {
		return nil
	}

	t := new(table.Builder).
		Add("level", vals).
		Add("throughput", tps).
		Add("latency", lats).
		Done()
	agg := ggstat.Agg("level")(
		ggstat.AggCount("runs"),
		ggstat.AggMean("throughput", "latency"),
		ggstat.AggMax("throughput"),
	)
	out := table.Flatten(agg.F(t))

	levels := out.MustColumn("level").([]string)
	runs := out.MustColumn("runs").([]int)
	meanTP := out.MustColumn("mean throughput").([]float64)
	meanLat := out.MustColumn("mean latency").([]float64)
	maxTP := out.MustColumn("max throughput").([]float64)
	res := make([]Level, len(levels))
	for i := range levels {
		res[i] = Level{
			Value:            levels[i],
			Runs:             runs[i],
			MeanThroughputMB: meanTP[i],
			MeanLatencyMS:    meanLat[i],
			MaxThroughputMB:  maxTP[i],
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return dimLess(res[i].Value, res[j].Value) })
	return res
}

// A Grid is the mean of a metric over two configuration dimensions.
type Grid struct {
	RowDim, ColDim, Metric string

	// Rows and Cols are the dimension values in ascending order.
	Rows, Cols []string

	// Cells[i][j] is the mean for Rows[i] and Cols[j], or NaN if no
	// record has that combination.
	Cells [][]float64
}

// colPrefix keeps pivoted column names apart from the row column.
const colPrefix = "col:"

// Heatmap computes the mean of metric over the producer records of
// recs for every combination of the values of rowDim and colDim.
// Records lacking either dimension or the metric are left out.
func Heatmap(recs []*perffmt.Record, rowDim, colDim, metricName string) *Grid {
	grid := &Grid{RowDim: rowDim, ColDim: colDim, Metric: metricName}
	var rows, cols []string
	var vals []float64
	for _, rec := range producers(recs) {
		r, ok1 := dimValue(rec, rowDim)
		c, ok2 := dimValue(rec, colDim)
		v, ok3 := rec.Metric(metricName)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		rows = append(rows, r)
		cols = append(cols, colPrefix+c)
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return grid
	}

	t := new(table.Builder).Add("row", rows).Add("col", cols).Add("value", vals).Done()
	means := table.Flatten(ggstat.Agg("row", "col")(ggstat.AggMean("value")).F(t))
	cells := new(table.Builder).
		Add("row", means.MustColumn("row")).
		Add("col", means.MustColumn("col")).
		Add("value", means.MustColumn("mean value")).
		Done()

	type pair struct{ row, col string }
	present := make(map[pair]bool)
	seenCol := make(map[string]bool)
	cellRows := cells.MustColumn("row").([]string)
	for i, c := range cells.MustColumn("col").([]string) {
		present[pair{cellRows[i], c}] = true
		if !seenCol[c] {
			seenCol[c] = true
			grid.Cols = append(grid.Cols, c[len(colPrefix):])
		}
	}

	pv := table.Flatten(table.Pivot(cells, "col", "value"))
	pvRows := pv.MustColumn("row").([]string)
	rowIdx := make(map[string]int)
	for i, r := range pvRows {
		rowIdx[r] = i
	}
	grid.Rows = append([]string(nil), pvRows...)
	sort.SliceStable(grid.Rows, func(i, j int) bool { return dimLess(grid.Rows[i], grid.Rows[j]) })
	sort.SliceStable(grid.Cols, func(i, j int) bool { return dimLess(grid.Cols[i], grid.Cols[j]) })

	grid.Cells = make([][]float64, len(grid.Rows))
	for i, r := range grid.Rows {
		grid.Cells[i] = make([]float64, len(grid.Cols))
		for j, c := range grid.Cols {
			if !present[pair{r, colPrefix + c}] {
				grid.Cells[i][j] = math.NaN()
				continue
			}
			grid.Cells[i][j] = pv.MustColumn(colPrefix + c).([]float64)[rowIdx[r]]
		}
	}
	return grid
}

// A ScalingPoint summarizes the producer records run with one number
// of concurrent producers.
type ScalingPoint struct {
	Producers int
	Runs      int

	// ThroughputMB is the mean throughput_mb of the runs and
	// PerProducerMB its share per producer.
	ThroughputMB  float64
	PerProducerMB float64
	LatencyMS     float64

	// Efficiency is PerProducerMB as a percentage of the baseline's
	// PerProducerMB.
	Efficiency float64
}

// A Degradation compares per-producer throughput at the baseline
// with the highest producer count.
type Degradation struct {
	SingleMB   float64
	MultiMB    float64
	MultiCount int

	PerProducerMultiMB float64
	// Percent is the per-producer throughput lost relative to the
	// baseline. It is 0 if the baseline throughput is not positive.
	Percent float64
}

// A ScalingReport describes how throughput scales with the number of
// producers.
type ScalingReport struct {
	// Points are in ascending order of Producers.
	Points []ScalingPoint
	// Baseline is the point with one producer, or the first point.
	Baseline *ScalingPoint
	// Degradation is nil with fewer than two points.
	Degradation *Degradation
}

// Scaling groups the producer records of recs by their num_producers
// setting, which defaults to 1.
func Scaling(recs []*perffmt.Record) *ScalingReport {
	var ns []int
	var tps, lats []float64
	for _, rec := range producers(recs) {
		n := 1
		if v, ok := rec.Get("num_producers"); ok {
			if f, ok := v.Number(); ok {
				n = int(f)
			}
		}
		ns = append(ns, n)
		tps = append(tps, metric(rec, perffmt.ThroughputMB))
		lats = append(lats, metric(rec, perffmt.AvgLatencyMS))
	}
	s := new(ScalingReport)
	if len(ns) == 0 {
		return s
	}

	t := new(table.Builder).Add("producers", ns).Add("throughput", tps).Add("latency", lats).Done()
	agg := ggstat.Agg("producers")(ggstat.AggCount("runs"), ggstat.AggMean("throughput", "latency"))
	out := table.Flatten(table.SortBy(agg.F(t), "producers"))

	pn := out.MustColumn("producers").([]int)
	runs := out.MustColumn("runs").([]int)
	tp := out.MustColumn("mean throughput").([]float64)
	lat := out.MustColumn("mean latency").([]float64)
	for i := range pn {
		p := ScalingPoint{Producers: pn[i], Runs: runs[i], ThroughputMB: tp[i], LatencyMS: lat[i]}
		p.PerProducerMB = p.ThroughputMB
		if p.Producers > 0 {
			p.PerProducerMB /= float64(p.Producers)
		}
		s.Points = append(s.Points, p)
	}

	s.Baseline = &s.Points[0]
	for i := range s.Points {
		if s.Points[i].Producers == 1 {
			s.Baseline = &s.Points[i]
			break
		}
	}
	for i := range s.Points {
		if base := s.Baseline.PerProducerMB; base > 0 {
			s.Points[i].Efficiency = 100 * s.Points[i].PerProducerMB / base
		}
	}

	if len(s.Points) >= 2 {
		last := s.Points[len(s.Points)-1]
		d := &Degradation{
			SingleMB:           s.Baseline.ThroughputMB,
			MultiMB:            last.ThroughputMB,
			MultiCount:         last.Producers,
			PerProducerMultiMB: last.PerProducerMB,
		}
		if d.SingleMB > 0 {
			d.Percent = 100 * (d.SingleMB - d.PerProducerMultiMB) / d.SingleMB
		}
		s.Degradation = d
	}
	return s
}
