// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perffmt extracts structured performance records from the
// text output of message-broker producer and consumer benchmark
// tools, and reads and writes those records as JSON.
//
// A Record carries the test type, the scenario name, an ordered
// configuration map of typed scalar values recovered from the log
// header and file name, and the metrics recovered from the tool's
// summary output. Records are immutable once extracted; the
// higher-level packages perfproc, perfmath and perfstat group and
// summarize them.
package perffmt

import (
	"strings"
	"time"
)

// A TestType says which side of the broker a benchmark exercised.
type TestType string

const (
	Producer TestType = "producer"
	Consumer TestType = "consumer"
)

// A Config is an ordered map from configuration key to Value.
//
// Keys keep the order in which they were first set. Setting an
// existing key updates it in place. The zero Config is empty and
// ready to use.
type Config struct {
	entries []ConfigEntry

	// pos maps from key to index in entries. It may be nil, in
	// which case it is built on demand.
	pos map[string]int
}

// A ConfigEntry is a single key/value configuration pair.
type ConfigEntry struct {
	Key   string
	Value Value
}

// NormalizeKey rewrites a configuration key into its stored form by
// replacing dots with underscores.
func NormalizeKey(key string) string {
	return strings.ReplaceAll(key, ".", "_")
}

func (c *Config) index() map[string]int {
	if c.pos == nil {
		c.pos = make(map[string]int, len(c.entries))
		for i, e := range c.entries {
			c.pos[e.Key] = i
		}
	}
	return c.pos
}

// Set sets key to v, adding key at the end if it is new.
func (c *Config) Set(key string, v Value) {
	pos := c.index()
	if i, ok := pos[key]; ok {
		c.entries[i].Value = v
		return
	}
	pos[key] = len(c.entries)
	c.entries = append(c.entries, ConfigEntry{key, v})
}

// Get returns the value of key and whether it is present.
func (c *Config) Get(key string) (Value, bool) {
	if c == nil {
		return Value{}, false
	}
	if i, ok := c.index()[key]; ok {
		return c.entries[i].Value, true
	}
	return Value{}, false
}

// Update sets every entry of o in c, in o's order.
func (c *Config) Update(o *Config) {
	for _, e := range o.Entries() {
		c.Set(e.Key, e.Value)
	}
}

// Len returns the number of keys in c.
func (c *Config) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Keys returns the keys of c in order.
func (c *Config) Keys() []string {
	keys := make([]string, 0, c.Len())
	for _, e := range c.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

// Entries returns the entries of c in order. The caller must not
// modify the returned slice.
func (c *Config) Entries() []ConfigEntry {
	if c == nil {
		return nil
	}
	return c.entries
}

// Clone returns a copy of c that shares no state with c.
func (c *Config) Clone() *Config {
	c2 := new(Config)
	c2.entries = append([]ConfigEntry(nil), c.Entries()...)
	return c2
}

// A Metric is one named measurement. A null Value means the tool
// did not report it.
type Metric struct {
	Name  string
	Value Value
}

// Metrics is an ordered list of measurements.
type Metrics []Metric

// Get returns the numeric value of the named metric. It reports false
// if the metric is missing or null.
func (m Metrics) Get(name string) (float64, bool) {
	for _, x := range m {
		if x.Name == name {
			return x.Value.Number()
		}
	}
	return 0, false
}

// Lookup returns the raw Value of the named metric.
func (m Metrics) Lookup(name string) (Value, bool) {
	for _, x := range m {
		if x.Name == name {
			return x.Value, true
		}
	}
	return Value{}, false
}

// Producer metric names, in output order.
const (
	RecordsSent   = "records_sent"
	ThroughputRPS = "throughput_rps"
	ThroughputMB  = "throughput_mb"
	AvgLatencyMS  = "avg_latency_ms"
	MaxLatencyMS  = "max_latency_ms"
	P50MS         = "p50_ms"
	P95MS         = "p95_ms"
	P99MS         = "p99_ms"
	P999MS        = "p999_ms"
)

// Consumer metric names, in output order.
const (
	DataConsumedMB   = "data_consumed_mb"
	ThroughputMBSec  = "throughput_mb_sec"
	NumMessages      = "num_messages"
	ThroughputMsgSec = "throughput_msg_sec"
	RebalanceTimeMS  = "rebalance_time_ms"
	FetchTimeMS      = "fetch_time_ms"
	FetchMBSec       = "fetch_mb_sec"
	FetchMsgSec      = "fetch_msg_sec"
)

// A Record is one benchmark run extracted from a log file or loaded
// from a structured file.
type Record struct {
	TestType TestType
	Scenario string
	Config   *Config
	Metrics  Metrics

	// StartTime and EndTime are the consumer tool's reported run
	// window, verbatim. They are empty for producer records.
	StartTime, EndTime string

	// Source is the path the record was read from and FileName its
	// base name.
	Source   string
	FileName string

	// ParseTime is when the record was extracted.
	ParseTime time.Time
}

// Clone makes a copy of r that shares no state with r.
func (r *Record) Clone() *Record {
	r2 := *r
	r2.Config = r.Config.Clone()
	r2.Metrics = append(Metrics(nil), r.Metrics...)
	return &r2
}

// Get returns the configuration value for key.
func (r *Record) Get(key string) (Value, bool) {
	return r.Config.Get(key)
}

// Metric returns the numeric value of a metric.
func (r *Record) Metric(name string) (float64, bool) {
	return r.Metrics.Get(name)
}

// Stem returns the record's file name without its extension.
func (r *Record) Stem() string {
	name := r.FileName
	if name == "" {
		return "unknown"
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}
