// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perfstat aggregates performance records by configuration
// and reports the results.
package perfstat

import (
	"time"

	"github.com/streamlab/kperf/perffmt"
	"github.com/streamlab/kperf/perfmath"
	"github.com/streamlab/kperf/perfproc"
)

// A Tracked is a metric summarized for every group.
type Tracked struct {
	// Name is the name of the summary in aggregated output.
	Name string
	// Source is the record metric it summarizes.
	Source string
	// KeepZero keeps zero observations even when Options.DropZeros
	// is set.
	KeepZero bool
}

// ProducerMetrics are the metrics summarized for producer groups.
var ProducerMetrics = []Tracked{
	{Name: "throughput_mb", Source: perffmt.ThroughputMB},
	{Name: "throughput_rps", Source: perffmt.ThroughputRPS},
	{Name: "avg_latency_ms", Source: perffmt.AvgLatencyMS},
	{Name: "p99_latency_ms", Source: perffmt.P99MS},
}

// ConsumerMetrics are the metrics summarized for consumer groups.
var ConsumerMetrics = []Tracked{
	{Name: "throughput_mb_sec", Source: perffmt.ThroughputMBSec},
	{Name: "throughput_msg_sec", Source: perffmt.ThroughputMsgSec},
	{Name: "rebalance_time_ms", Source: perffmt.RebalanceTimeMS, KeepZero: true},
}

// Options configures Aggregate.
type Options struct {
	// DropZeros treats zero measurements as missing. Null
	// measurements are always missing.
	DropZeros bool

	// Projection computes group keys. If nil,
	// perfproc.ConfigProjection is used.
	Projection *perfproc.Projection

	// Now returns the aggregation time. If nil, time.Now is used.
	Now func() time.Time
}

// A Stat is the summary of one tracked metric within a group.
type Stat struct {
	Name    string
	Summary perfmath.Summary
}

// A Group is the aggregate of all records sharing a group key.
type Group struct {
	Key string
	// Config is the configuration of the group's first record.
	Config *perffmt.Config
	// Count is the number of records in the group, which may
	// exceed the Count of an individual Stat.
	Count int
	Stats []Stat
}

// Stat returns the summary of the named metric.
func (g *Group) Stat(name string) perfmath.Summary {
	for _, s := range g.Stats {
		if s.Name == name {
			return s.Summary
		}
	}
	return perfmath.Summary{}
}

// A Collection is the aggregate of the records of one test type.
type Collection struct {
	TestType perffmt.TestType
	// Groups are in the order their keys were first seen.
	Groups []*Group
}

// Lookup returns the group with the given key, or nil.
func (c *Collection) Lookup(key string) *Group {
	for _, g := range c.Groups {
		if g.Key == key {
			return g
		}
	}
	return nil
}

// A Report is the complete aggregation of a record set.
type Report struct {
	Total     int
	Producers int
	Consumers int

	Producer *Collection
	Consumer *Collection

	// Best picks. Each is nil if no group qualifies.
	BestProducerThroughput *Group
	BestProducerLatency    *Group
	BestConsumerThroughput *Group

	Time time.Time
}

// Aggregate groups recs by configuration and summarizes each group.
// An empty recs yields a Report with no groups.
func Aggregate(recs []*perffmt.Record, opts Options) *Report {
	proj := opts.Projection
	if proj == nil {
		proj = perfproc.ConfigProjection
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	producers, consumers := perfproc.Partition(recs)
	r := &Report{
		Total:     len(recs),
		Producers: len(producers),
		Consumers: len(consumers),
		Producer:  collect(perffmt.Producer, proj, producers, ProducerMetrics, opts),
		Consumer:  collect(perffmt.Consumer, proj, consumers, ConsumerMetrics, opts),
		Time:      now(),
	}
	r.BestProducerThroughput = Highest(r.Producer, "throughput_mb")
	r.BestProducerLatency = Lowest(r.Producer, "avg_latency_ms")
	r.BestConsumerThroughput = Highest(r.Consumer, "throughput_mb_sec")
	return r
}

func collect(tt perffmt.TestType, proj *perfproc.Projection, recs []*perffmt.Record, tracked []Tracked, opts Options) *Collection {
	c := &Collection{TestType: tt}
	for _, pg := range perfproc.GroupBy(proj, recs) {
		g := &Group{
			Key:    pg.Key,
			Config: pg.Records[0].Config,
			Count:  len(pg.Records),
		}
		for _, t := range tracked {
			var vals []float64
			for _, rec := range pg.Records {
				v, ok := rec.Metric(t.Source)
				if !ok || (v == 0 && opts.DropZeros && !t.KeepZero) {
					continue
				}
				vals = append(vals, v)
			}
			g.Stats = append(g.Stats, Stat{t.Name, perfmath.Summarize(vals)})
		}
		c.Groups = append(c.Groups, g)
	}
	return c
}

// Highest returns the group of c with the highest mean of metric.
// Groups without observations count as zero. Ties go to the group
// with the lexicographically smallest key.
func Highest(c *Collection, metric string) *Group {
	var best *Group
	var bestMean float64
	for _, g := range c.Groups {
		mean := 0.0
		if s := g.Stat(metric); s.Valid() {
			mean = s.Mean
		}
		if best == nil || mean > bestMean || (mean == bestMean && g.Key < best.Key) {
			best, bestMean = g, mean
		}
	}
	return best
}

// Lowest returns the group of c with the lowest mean of metric,
// considering only groups with observations. Ties go to the group
// with the lexicographically smallest key.
func Lowest(c *Collection, metric string) *Group {
	var best *Group
	var bestMean float64
	for _, g := range c.Groups {
		s := g.Stat(metric)
		if !s.Valid() {
			continue
		}
		if best == nil || s.Mean < bestMean || (s.Mean == bestMean && g.Key < best.Key) {
			best, bestMean = g, s.Mean
		}
	}
	return best
}
