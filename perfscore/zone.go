// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfscore

import (
	"math"
	"sort"
)

// A Zone classifies an operating point of a producer.
type Zone string

const (
	// Safe leaves headroom in both throughput and latency.
	Safe Zone = "safe"
	// Diminishing is where added load buys less throughput.
	Diminishing Zone = "diminishing"
	// Saturation is at or beyond the broker's capacity.
	Saturation Zone = "saturation"
)

// Zone thresholds.
const (
	SafeThroughputMB        = 50
	SafeLatencyMS           = 1000
	DiminishingThroughputMB = 90
)

// ZoneOf returns the zone of a producer running at throughputMB with
// the given average latency.
func ZoneOf(throughputMB, avgLatencyMS float64) Zone {
	switch {
	case throughputMB < SafeThroughputMB && avgLatencyMS < SafeLatencyMS:
		return Safe
	case throughputMB < DiminishingThroughputMB:
		return Diminishing
	}
	return Saturation
}

// Knee returns the knee of the latency-vs-throughput curve through
// rows: after sorting the points by throughput and scaling both axes
// to [0, 1], the point lying furthest below the chord from the first
// to the last point. Past the knee latency grows faster than
// throughput.
//
// Knee returns nil with fewer than three rows, when all rows have the
// same throughput or latency, or when no point lies below the chord.
func Knee(rows []*Row) *Row {
	if len(rows) < 3 {
		return nil
	}
	pts := append([]*Row(nil), rows...)
	sort.SliceStable(pts, func(i, j int) bool {
		if pts[i].ThroughputMB != pts[j].ThroughputMB {
			return pts[i].ThroughputMB < pts[j].ThroughputMB
		}
		return pts[i].AvgLatencyMS < pts[j].AvgLatencyMS
	})

	minX, maxX := pts[0].ThroughputMB, pts[len(pts)-1].ThroughputMB
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		minY = math.Min(minY, p.AvgLatencyMS)
		maxY = math.Max(maxY, p.AvgLatencyMS)
	}
	if maxX == minX || maxY == minY {
		return nil
	}
	norm := func(p *Row) (x, y float64) {
		return (p.ThroughputMB - minX) / (maxX - minX), (p.AvgLatencyMS - minY) / (maxY - minY)
	}

	x0, y0 := norm(pts[0])
	x1, y1 := norm(pts[len(pts)-1])
	var knee *Row
	bestD := 0.0
	for _, p := range pts[1 : len(pts)-1] {
		x, y := norm(p)
		chord := y0 + (y1-y0)*(x-x0)/(x1-x0)
		if d := chord - y; d > bestD {
			knee, bestD = p, d
		}
	}
	return knee
}

// Top returns up to n rows of b ordered by descending score for
// objective o. Rows with equal scores keep their board order. n <= 0
// returns every row.
func (b *Board) Top(n int, o Objective) []*Row {
	rows := append([]*Row(nil), b.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score(o) > rows[j].Score(o)
	})
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows
}
