// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffmt

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Header comment labels. Each is searched for independently and the
// first occurrence wins.
var (
	configLine     = regexp.MustCompile(`#\s*Configuration:\s*(.+)`)
	recordSizeLine = regexp.MustCompile(`#\s*Record Size:\s*(\d+)`)
	numRecordsLine = regexp.MustCompile(`#\s*Num Records:\s*(\d+)`)
	scenarioLine   = regexp.MustCompile(`#\s*(?:Producer|Consumer) (?:Performance )?Test\s*-\s*(.+)`)
	testRunLine    = regexp.MustCompile(`#\s*Test Run:\s*(.+)`)
	hostLine       = regexp.MustCompile(`#\s*Host:\s*(.+)`)
	dateLine       = regexp.MustCompile(`#\s*Date:\s*(.+)`)
)

// headerConfig extracts configuration from the "#" header comments
// of a log.
func headerConfig(text string) *Config {
	cfg := new(Config)
	for _, l := range []struct {
		key string
		re  *regexp.Regexp
	}{
		{"scenario", scenarioLine},
		{"test_run", testRunLine},
		{"host", hostLine},
		{"date", dateLine},
	} {
		if m := l.re.FindStringSubmatch(text); m != nil {
			cfg.Set(l.key, StringValue(trimRight(m[1])))
		}
	}
	for _, l := range []struct {
		key string
		re  *regexp.Regexp
	}{
		{"record_size", recordSizeLine},
		{"num_records", numRecordsLine},
	} {
		if m := l.re.FindStringSubmatch(text); m != nil {
			cfg.Set(l.key, Coerce(m[1]))
		}
	}

	// # Configuration: acks=1, batch.size=16384, linger.ms=10
	if m := configLine.FindStringSubmatch(text); m != nil {
		for _, item := range strings.Split(m[1], ",") {
			key, val, ok := strings.Cut(strings.TrimSpace(item), "=")
			if !ok {
				continue
			}
			cfg.Set(NormalizeKey(strings.TrimSpace(key)), Coerce(strings.TrimSpace(val)))
		}
	}
	return cfg
}

func trimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// File name labels, in the order they are applied.
var nameLabels = []struct {
	key string
	re  *regexp.Regexp
}{
	{"acks", regexp.MustCompile(`(?i)acks[_-]?(-?[a-z0-9]+)`)},
	{"batch", regexp.MustCompile(`(?i)batch[_-]?(\d+)`)},
	{"linger", regexp.MustCompile(`(?i)linger[_-]?(\d+)`)},
	{"size", regexp.MustCompile(`(?i)size[_-]?(\d+)`)},
	{"compression", regexp.MustCompile(`(?i)(none|snappy|lz4|zstd|gzip)`)},
	{"fetch", regexp.MustCompile(`(?i)fetch[_-]?(\d+)`)},
	{"poll", regexp.MustCompile(`(?i)poll[_-]?(\d+)`)},
}

// nameConfig extracts configuration from a log's file name, such as
// producer_baseline_acks1_batch16384_linger10_zstd_size1024_20240828.log.
func nameConfig(name string, tt TestType) *Config {
	cfg := new(Config)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, l := range nameLabels {
		m := l.re.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		if isDigits(m[1]) {
			cfg.Set(l.key, Coerce(m[1]))
		} else {
			cfg.Set(l.key, StringValue(m[1]))
		}
	}
	if parts := strings.Split(stem, "_"); len(parts) >= 2 && parts[0] == string(tt) {
		cfg.Set("scenario", StringValue(parts[1]))
	}
	return cfg
}

// CanonicalAcks rewrites an acks setting to its canonical string
// form. "-1" and "all" denote the same durability level and both
// become "all".
func CanonicalAcks(v Value) Value {
	if v.IsNull() {
		return v
	}
	s := strings.ToLower(strings.TrimSpace(v.String()))
	if s == "-1" {
		s = "all"
	}
	return StringValue(s)
}

// canonicalize applies the ingestion-time normalizations to cfg.
func canonicalize(cfg *Config) {
	if v, ok := cfg.Get("acks"); ok {
		cfg.Set("acks", CanonicalAcks(v))
	}
}

// scenarioOf returns the scenario name recorded in cfg.
func scenarioOf(cfg *Config) string {
	if v, ok := cfg.Get("scenario"); ok && !v.IsNull() {
		return v.String()
	}
	return "unknown"
}
