// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perfscore ranks producer records against optimization
// objectives.
//
// Every record gets three normalized component scores in [0, 100]
// (higher is better):
//
//	throughput  = 100 * throughput_mb / max throughput_mb
//	latency     = 100 - 100 * avg_latency_ms / max avg_latency_ms
//	consistency = max(0, 100 - 50 * (p99_ms/avg_latency_ms - 1))
//
// and one composite score per Objective, a fixed convex combination of
// the components. Because the normalization uses the maxima over the
// whole record set, scores are only comparable within one Board.
package perfscore

import (
	"fmt"
	"math"

	"github.com/streamlab/kperf/perffmt"
)

// An Objective is a weighting of the component scores.
type Objective int

const (
	MaxThroughput Objective = iota
	Balanced
	Durability

	numObjectives
)

// Objectives lists every Objective.
var Objectives = []Objective{MaxThroughput, Balanced, Durability}

var objectiveNames = [numObjectives]string{"max_throughput", "balanced", "durability"}

func (o Objective) String() string {
	if o < 0 || o >= numObjectives {
		return fmt.Sprintf("Objective(%d)", int(o))
	}
	return objectiveNames[o]
}

// ParseObjective returns the Objective named s.
func ParseObjective(s string) (Objective, error) {
	for i, name := range objectiveNames {
		if s == name {
			return Objective(i), nil
		}
	}
	return 0, fmt.Errorf("unknown objective %q", s)
}

// Weights are the coefficients of the component scores in a composite
// score. They sum to 1.
type Weights struct {
	Throughput, Latency, Consistency float64
}

var objectiveWeights = [numObjectives]Weights{
	MaxThroughput: {0.4, 0.2, 0.4},
	Balanced:      {0.3, 0.35, 0.35},
	Durability:    {0.2, 0.35, 0.45},
}

// Weights returns the weights of objective o.
func (o Objective) Weights() Weights {
	return objectiveWeights[o]
}

// DefaultConsistency is the consistency score of a record without a
// positive average latency or without a p99 latency.
const DefaultConsistency = 50

// A Row is the scoring of one producer record.
type Row struct {
	Record *perffmt.Record

	// Inputs. Missing throughput and latency count as 0.
	ThroughputMB float64
	AvgLatencyMS float64
	P99MS        float64
	HasP99       bool

	ThroughputScore  float64
	LatencyScore     float64
	ConsistencyScore float64

	scores [numObjectives]float64
}

// Score returns the composite score of r for objective o.
func (r *Row) Score(o Objective) float64 {
	return r.scores[o]
}

// Acks returns the canonical acks setting of r's record, or "" if it
// has none.
func (r *Row) Acks() string {
	v, ok := r.Record.Get("acks")
	if !ok || v.IsNull() {
		return ""
	}
	return perffmt.CanonicalAcks(v).Str
}

// Zone returns the performance zone r falls in.
func (r *Row) Zone() Zone {
	return ZoneOf(r.ThroughputMB, r.AvgLatencyMS)
}

// A Board is the scoring of a set of producer records.
type Board struct {
	// Rows are in the order of the scored records.
	Rows []*Row

	// MaxThroughput and MaxLatency are the normalization maxima. They
	// are 1 if no record has a positive value.
	MaxThroughput float64
	MaxLatency    float64

	// Best picks, nil if no row qualifies. Ties go to the earliest
	// row.
	BestThroughput *Row // highest throughput_mb
	BestLatency    *Row // lowest avg_latency_ms
	best           [numObjectives]*Row
}

// Best returns the row with the highest score for objective o. For
// Durability only rows with acks "all" are candidates.
func (b *Board) Best(o Objective) *Row {
	return b.best[o]
}

// Score scores the producer records of recs. Records of other test
// types are ignored.
func Score(recs []*perffmt.Record) *Board {
	b := &Board{MaxThroughput: 1, MaxLatency: 1}
	for _, rec := range recs {
		if rec.TestType != perffmt.Producer {
			continue
		}
		r := &Row{Record: rec}
		r.ThroughputMB, _ = rec.Metric(perffmt.ThroughputMB)
		r.AvgLatencyMS, _ = rec.Metric(perffmt.AvgLatencyMS)
		r.P99MS, r.HasP99 = rec.Metric(perffmt.P99MS)
		b.Rows = append(b.Rows, r)
	}

	maxTP, maxLat := math.Inf(-1), math.Inf(-1)
	for _, r := range b.Rows {
		maxTP = math.Max(maxTP, r.ThroughputMB)
		maxLat = math.Max(maxLat, r.AvgLatencyMS)
	}
	if maxTP > 0 {
		b.MaxThroughput = maxTP
	}
	if maxLat > 0 {
		b.MaxLatency = maxLat
	}

	for _, r := range b.Rows {
		r.ThroughputScore = 100 * r.ThroughputMB / b.MaxThroughput
		r.LatencyScore = 100 - 100*r.AvgLatencyMS/b.MaxLatency
		r.ConsistencyScore = consistency(r)
		for o := Objective(0); o < numObjectives; o++ {
			w := o.Weights()
			r.scores[o] = w.Throughput*r.ThroughputScore +
				w.Latency*r.LatencyScore +
				w.Consistency*r.ConsistencyScore
		}
	}

	b.BestThroughput = b.pick(func(r *Row) float64 { return r.ThroughputMB }, nil)
	b.BestLatency = b.pick(func(r *Row) float64 { return -r.AvgLatencyMS }, nil)
	for o := Objective(0); o < numObjectives; o++ {
		var keep func(*Row) bool
		if o == Durability {
			keep = func(r *Row) bool { return r.Acks() == "all" }
		}
		b.best[o] = b.pick(func(r *Row) float64 { return r.Score(o) }, keep)
	}
	return b
}

func consistency(r *Row) float64 {
	if r.AvgLatencyMS <= 0 || !r.HasP99 {
		return DefaultConsistency
	}
	return math.Max(0, 100-50*(r.P99MS/r.AvgLatencyMS-1))
}

// pick returns the first row maximizing key among the rows accepted
// by keep, or all rows if keep is nil.
func (b *Board) pick(key func(*Row) float64, keep func(*Row) bool) *Row {
	var best *Row
	var bestKey float64
	for _, r := range b.Rows {
		if keep != nil && !keep(r) {
			continue
		}
		if k := key(r); best == nil || k > bestKey {
			best, bestKey = r, k
		}
	}
	return best
}
