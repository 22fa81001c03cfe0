// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamlab/kperf/perffmt"
)

func config(kv ...any) *perffmt.Config {
	cfg := new(perffmt.Config)
	for i := 0; i < len(kv); i += 2 {
		var v perffmt.Value
		switch x := kv[i+1].(type) {
		case int:
			v = perffmt.IntValue(int64(x))
		case float64:
			v = perffmt.FloatValue(x)
		case string:
			v = perffmt.StringValue(x)
		}
		cfg.Set(kv[i].(string), v)
	}
	return cfg
}

func TestGroupKey(t *testing.T) {
	for _, test := range []struct {
		name string
		cfg  *perffmt.Config
		want string
	}{
		{"empty", config(), DefaultKey},
		{"irrelevant only", config("host", "b1", "scenario", "x"), DefaultKey},
		{"sorted", config("linger_ms", 10, "acks", "all", "batch_size", 16384, "host", "b1"),
			"acks=all|batch_size=16384|linger_ms=10"},
		{"float stays float", config("batch_size", 10.0), "batch_size=10.0"},
		{"both compressions", config("compression", "lz4", "compression_type", "zstd"),
			"compression=lz4|compression_type=zstd"},
	} {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, GroupKey(test.cfg))
		})
	}
}

func record(tt perffmt.TestType, cfg *perffmt.Config) *perffmt.Record {
	return &perffmt.Record{TestType: tt, Config: cfg}
}

func TestGroupBy(t *testing.T) {
	recs := []*perffmt.Record{
		record(perffmt.Producer, config("acks", "1", "host", "a")),
		record(perffmt.Producer, config("acks", "all")),
		record(perffmt.Producer, config("acks", "1", "host", "b")),
		record(perffmt.Producer, config()),
	}
	groups := GroupBy(ConfigProjection, recs)
	require.Len(t, groups, 3)
	assert.Equal(t, "acks=1", groups[0].Key)
	assert.Equal(t, []*perffmt.Record{recs[0], recs[2]}, groups[0].Records)
	assert.Equal(t, "acks=all", groups[1].Key)
	assert.Equal(t, DefaultKey, groups[2].Key)

	// Every member agrees with the group's first record on every
	// relevant key that record sets.
	for _, g := range groups {
		rep := g.Records[0].Config
		for _, rec := range g.Records {
			for _, k := range RelevantKeys {
				want, ok := rep.Get(k)
				if !ok {
					continue
				}
				got, _ := rec.Config.Get(k)
				assert.True(t, want.Equal(got), "%s: %s", g.Key, k)
			}
		}
	}
}

func TestPartition(t *testing.T) {
	p1 := record(perffmt.Producer, config())
	c1 := record(perffmt.Consumer, config())
	p2 := record(perffmt.Producer, config())
	producers, consumers := Partition([]*perffmt.Record{p1, c1, p2})
	assert.Equal(t, []*perffmt.Record{p1, p2}, producers)
	assert.Equal(t, []*perffmt.Record{c1}, consumers)
}

func TestFilter(t *testing.T) {
	recs := []*perffmt.Record{
		{TestType: perffmt.Producer, Scenario: "base", Config: config("acks", "all", "batch_size", 16384)},
		{TestType: perffmt.Producer, Scenario: "tuned", Config: config("acks", "1")},
		{TestType: perffmt.Consumer, Scenario: "base", Config: config("fetch_min_bytes", 1)},
	}
	for _, test := range []struct {
		query string
		want  []int
	}{
		{"", []int{0, 1, 2}},
		{"acks:-1", []int{0}},
		{"acks:*", []int{0, 1}},
		{".type:consumer", []int{2}},
		{".scenario:base batch.size:16384", []int{0}},
		{".type:producer .scenario:tuned", []int{1}},
		{"acks:0", nil},
	} {
		t.Run(test.query, func(t *testing.T) {
			f, err := NewFilter(test.query)
			require.NoError(t, err)
			var got []int
			for i, rec := range recs {
				if f.Match(rec) {
					got = append(got, i)
				}
			}
			assert.Equal(t, test.want, got)
		})
	}

	_, err := NewFilter("acks")
	assert.Error(t, err)
}
