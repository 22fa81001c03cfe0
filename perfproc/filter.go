// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfproc

import (
	"fmt"
	"strings"

	"github.com/streamlab/kperf/perffmt"
)

// A Filter selects records whose labels match every term of a query.
//
// A query is a space-separated list of key:value terms. A key names a
// configuration key, or one of the record properties ".type" and
// ".scenario". A value of "*" only requires the key to be present.
// Values compare against the canonical rendering of configuration
// values, so "acks:all" also matches records logged with acks=-1.
type Filter struct {
	terms []term
}

type term struct {
	key, value string
}

// NewFilter parses query into a Filter. An empty query matches every
// record.
func NewFilter(query string) (*Filter, error) {
	f := new(Filter)
	for _, word := range strings.Fields(query) {
		key, value, ok := strings.Cut(word, ":")
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("bad filter term %q: want key:value", word)
		}
		// Pseudo-keys such as .type name record fields, not config keys.
		if !strings.HasPrefix(key, ".") {
			key = perffmt.NormalizeKey(key)
		}
		if key == "acks" && value != "*" {
			value = perffmt.CanonicalAcks(perffmt.StringValue(value)).Str
		}
		f.terms = append(f.terms, term{key, value})
	}
	return f, nil
}

// Match reports whether rec matches every term of f.
func (f *Filter) Match(rec *perffmt.Record) bool {
	for _, t := range f.terms {
		var got string
		var ok bool
		switch t.key {
		case ".type":
			got, ok = string(rec.TestType), true
		case ".scenario":
			got, ok = rec.Scenario, true
		default:
			var v perffmt.Value
			v, ok = rec.Get(t.key)
			got = v.String()
		}
		if !ok || (t.value != "*" && got != t.value) {
			return false
		}
	}
	return true
}

// Apply returns the records of recs that f matches.
func (f *Filter) Apply(recs []*perffmt.Record) []*perffmt.Record {
	if len(f.terms) == 0 {
		return recs
	}
	var out []*perffmt.Record
	for _, rec := range recs {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}
