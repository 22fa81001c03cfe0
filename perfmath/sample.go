// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perfmath computes distributional summaries of repeated
// performance measurements.
package perfmath

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// A Sample is a set of repeated measurements of one metric for one
// configuration.
type Sample struct {
	// Values are the measured values, in ascending order.
	Values []float64
}

// NewSample constructs a Sample from a set of measurements. It sorts
// values in place.
func NewSample(values []float64) *Sample {
	// Sort values for fast order statistics.
	sort.Float64s(values)
	return &Sample{values}
}

func (s *Sample) sample() stats.Sample {
	return stats.Sample{Xs: s.Values, Sorted: true}
}

// Percentile returns the q'th quantile of s, 0 <= q <= 1, linearly
// interpolating between the two closest ranks. The rank of the
// smallest value is 0 and of the largest N-1.
//
// This differs from stats.Sample.Quantile, which uses a different
// interpolation rule.
func (s *Sample) Percentile(q float64) float64 {
	xs := s.Values
	switch {
	case len(xs) == 0:
		return math.NaN()
	case q <= 0:
		return xs[0]
	case q >= 1:
		return xs[len(xs)-1]
	}
	h := float64(len(xs)-1) * q
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(xs) {
		return xs[len(xs)-1]
	}
	a, b := xs[i], xs[i+1]
	v := a + (h-lo)*(b-a)
	// Keep the result inside its bracket despite rounding.
	return math.Min(math.Max(v, a), b)
}

// A Summary summarizes a Sample.
//
// If Count is 0, every statistic is undefined and the Summary encodes
// them as JSON nulls.
type Summary struct {
	Mean float64
	// Std is the population standard deviation (divisor N).
	Std           float64
	Min, Max      float64
	P50, P95, P99 float64
	Count         int
}

// Valid reports whether s summarizes at least one value.
func (s Summary) Valid() bool {
	return s.Count > 0
}

// Summarize computes the Summary of values. It does not modify
// values.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := NewSample(append([]float64(nil), values...))
	return s.Summary()
}

// Summary computes the Summary of s.
func (s *Sample) Summary() Summary {
	n := len(s.Values)
	if n == 0 {
		return Summary{}
	}
	ss := s.sample()
	lo, hi := ss.Bounds()
	mean := math.Min(math.Max(ss.Mean(), lo), hi)
	// stats.Sample.Variance divides by N-1.
	variance := ss.Variance() * float64(n-1) / float64(n)
	return Summary{
		Mean:  mean,
		Std:   math.Sqrt(variance),
		Min:   lo,
		Max:   hi,
		P50:   s.Percentile(0.50),
		P95:   s.Percentile(0.95),
		P99:   s.Percentile(0.99),
		Count: n,
	}
}

// summaryJSON is the wire form of a Summary.
type summaryJSON struct {
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	P50   *float64 `json:"p50"`
	P95   *float64 `json:"p95"`
	P99   *float64 `json:"p99"`
	Count int      `json:"count"`
}

// MarshalJSON encodes s with null statistics when s is not Valid.
func (s Summary) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return json.Marshal(summaryJSON{})
	}
	f := func(v float64) *float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	return json.Marshal(summaryJSON{
		Mean: f(s.Mean), Std: f(s.Std),
		Min: f(s.Min), Max: f(s.Max),
		P50: f(s.P50), P95: f(s.P95), P99: f(s.P99),
		Count: s.Count,
	})
}

// UnmarshalJSON decodes a Summary written by MarshalJSON.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var j summaryJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	g := func(p *float64) float64 {
		if p == nil {
			return math.NaN()
		}
		return *p
	}
	*s = Summary{
		Mean: g(j.Mean), Std: g(j.Std),
		Min: g(j.Min), Max: g(j.Max),
		P50: g(j.P50), P95: g(j.P95), P99: g(j.P99),
		Count: j.Count,
	}
	if s.Count == 0 {
		*s = Summary{}
	}
	return nil
}
