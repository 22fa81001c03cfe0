// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfmath

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	s := NewSample([]float64{4, 1, 3, 2})
	check := func(q, want float64) {
		t.Helper()
		if got := s.Percentile(q); math.Abs(got-want) > 1e-12 {
			t.Errorf("Percentile(%v) = %v, want %v", q, got, want)
		}
	}
	check(0, 1)
	check(0.5, 2.5)
	check(0.95, 3.85)
	check(0.99, 3.97)
	check(1, 4)

	assert.True(t, math.IsNaN(NewSample(nil).Percentile(0.5)))
}

func TestSummarize(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	s := Summarize(values)
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5, s.Mean, 1e-12)
	// Population standard deviation of this set is exactly 2.
	assert.InDelta(t, 2, s.Std, 1e-12)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.InDelta(t, 4.5, s.P50, 1e-12)
	// Summarize must not reorder its input.
	assert.Equal(t, []float64{2, 4, 4, 4, 5, 5, 7, 9}, values)
}

func TestSummarizeSingle(t *testing.T) {
	for _, v := range []float64{0, 28.59, 3182.27, 1e9} {
		s := Summarize([]float64{v})
		assert.Equal(t, Summary{Mean: v, Std: 0, Min: v, Max: v, P50: v, P95: v, P99: v, Count: 1}, s)
	}
}

func TestSummarizeBounds(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := 1 + r.Intn(20)
		values := make([]float64, n)
		for j := range values {
			values[j] = r.ExpFloat64() * 100
		}
		s := Summarize(values)
		require.Equal(t, n, s.Count)
		assert.LessOrEqual(t, s.Min, s.P50)
		assert.LessOrEqual(t, s.P50, s.P95)
		assert.LessOrEqual(t, s.P95, s.P99)
		assert.LessOrEqual(t, s.P99, s.Max)
		assert.LessOrEqual(t, s.Min, s.Mean)
		assert.LessOrEqual(t, s.Mean, s.Max)
		assert.GreaterOrEqual(t, s.Std, 0.0)
	}
}

func TestSummaryJSON(t *testing.T) {
	data, err := json.Marshal(Summarize(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"mean":null,"std":null,"min":null,"max":null,"p50":null,"p95":null,"p99":null,"count":0}`, string(data))

	data, err = json.Marshal(Summarize([]float64{0, 2}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"mean":1,"std":1,"min":0,"max":2,"p50":1,"p95":1.9,"p99":1.98,"count":2}`, string(data))

	var s Summary
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 2.0, s.Max)
}
