// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfproc

import "github.com/streamlab/kperf/perffmt"

// A Group is the set of records that share a group key.
type Group struct {
	Key     string
	Records []*perffmt.Record
}

// GroupBy partitions recs by their key under p. Groups are returned
// in the order their keys first appear in recs, and each group's
// records keep their input order.
func GroupBy(p *Projection, recs []*perffmt.Record) []*Group {
	var groups []*Group
	index := make(map[string]*Group)
	for _, rec := range recs {
		key := p.Project(rec.Config)
		g, ok := index[key]
		if !ok {
			g = &Group{Key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.Records = append(g.Records, rec)
	}
	return groups
}

// Partition splits recs by test type, preserving order.
func Partition(recs []*perffmt.Record) (producers, consumers []*perffmt.Record) {
	for _, rec := range recs {
		switch rec.TestType {
		case perffmt.Producer:
			producers = append(producers, rec)
		case perffmt.Consumer:
			consumers = append(consumers, rec)
		}
	}
	return
}
