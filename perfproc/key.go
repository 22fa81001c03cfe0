// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perfproc provides tools for filtering and grouping
// performance records.
//
// The typical pipeline is:
//
// 1. Load perffmt.Records, either by extracting them from logs with
// perffmt.Files or by reading structured files with perffmt.LoadDir.
//
// 2. Optionally keep only the records matched by a Filter.
//
// 3. Project each record onto a Projection to obtain its group key,
// and group records by key with GroupBy. Groups keep the order in
// which their keys were first seen.
package perfproc

import (
	"sort"
	"strings"

	"github.com/streamlab/kperf/perffmt"
)

// RelevantKeys are the configuration keys that identify a tested
// configuration, in sorted order.
var RelevantKeys = []string{
	"acks",
	"batch_size",
	"compression",
	"compression_type",
	"fetch_min_bytes",
	"linger_ms",
	"max_poll_records",
	"num_consumers",
	"num_producers",
	"record_size",
}

// DefaultKey is the group key of a record that sets none of the keys
// of a projection.
const DefaultKey = "default"

// A Projection selects the configuration keys that make up a group
// key.
type Projection struct {
	keys []string
}

// NewProjection returns a Projection over keys. The keys are sorted
// so that the rendering of a group key does not depend on the order
// they were given in.
func NewProjection(keys ...string) *Projection {
	keys = append([]string(nil), keys...)
	sort.Strings(keys)
	return &Projection{keys}
}

// ConfigProjection projects onto RelevantKeys.
var ConfigProjection = NewProjection(RelevantKeys...)

// Keys returns the keys p selects, sorted.
func (p *Projection) Keys() []string {
	return p.keys
}

// Project returns the group key of cfg: the "key=value" pairs of
// every selected key that cfg sets, joined with "|". Keys cfg does
// not set are omitted rather than treated as wildcards. If cfg sets
// none of them, Project returns DefaultKey.
func (p *Projection) Project(cfg *perffmt.Config) string {
	var buf strings.Builder
	for _, k := range p.keys {
		v, ok := cfg.Get(k)
		if !ok {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('|')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(v.String())
	}
	if buf.Len() == 0 {
		return DefaultKey
	}
	return buf.String()
}

// GroupKey returns the group key of cfg under ConfigProjection.
func GroupKey(cfg *perffmt.Config) string {
	return ConfigProjection.Project(cfg)
}
