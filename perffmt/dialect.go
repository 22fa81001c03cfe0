// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffmt

import (
	"fmt"
	"strings"
)

// This file holds the grammars for the two tool output dialects.
//
// Producer summary (one line, possibly wrapped):
//
//	summary    = prefix { percentile } .
//	progress   = prefix "." .
//	prefix     = int S "records sent," S num S "records/sec" S "(" num S
//	             "MB/sec)," S num S "ms avg latency," S num S "ms max latency" .
//	percentile = "," S num S ( "ms 50th" | "ms 95th" | "ms 99th" | "ms 99.9th" ) .
//
// Percentile clauses are individually optional but must appear in the
// order listed.
//
// Consumer result line:
//
//	line = ts sep ts sep num sep num sep int sep num sep int sep int sep num sep num .
//	ts   = DDDD "-" DD "-" DD S DD ":" DD ":" DD ":" DDD .
//	sep  = "," [ S ] .
//
// S is one or more white space characters.

// percentileClauses lists the optional producer summary suffixes in
// the order the tool prints them. Adding a percentile to the dialect
// means adding a row here.
var percentileClauses = []struct {
	label  string
	metric string
}{
	{"ms 50th", P50MS},
	{"ms 95th", P95MS},
	{"ms 99th", P99MS},
	{"ms 99.9th", P999MS},
}

// producerLine is the raw token view of one producer summary match.
type producerLine struct {
	records, rps, mb, avg, max string
	pct                        []string // "" for absent clauses
}

func (s *scanner) producerPrefix(l *producerLine) bool {
	var ok bool
	if l.records, ok = s.digits(); !ok {
		return false
	}
	if !(s.spaces(1) && s.literal("records sent,") && s.spaces(1)) {
		return false
	}
	if l.rps, ok = s.number(); !ok {
		return false
	}
	if !(s.spaces(1) && s.literal("records/sec") && s.spaces(1) && s.literal("(")) {
		return false
	}
	if l.mb, ok = s.number(); !ok {
		return false
	}
	if !(s.spaces(1) && s.literal("MB/sec),") && s.spaces(1)) {
		return false
	}
	if l.avg, ok = s.number(); !ok {
		return false
	}
	if !(s.spaces(1) && s.literal("ms avg latency,") && s.spaces(1)) {
		return false
	}
	if l.max, ok = s.number(); !ok {
		return false
	}
	return s.spaces(1) && s.literal("ms max latency")
}

// producerSummary matches a final summary at the cursor.
func producerSummary(s *scanner) (producerLine, bool) {
	var l producerLine
	if !s.producerPrefix(&l) {
		return l, false
	}
	l.pct = make([]string, len(percentileClauses))
	for i, c := range percentileClauses {
		m := s.mark()
		if !(s.literal(",") && s.spaces(1)) {
			s.reset(m)
			continue
		}
		tok, ok := s.number()
		if !ok || !s.spaces(1) || !s.literal(c.label) {
			s.reset(m)
			continue
		}
		l.pct[i] = tok
	}
	return l, true
}

// producerProgress matches an intermediate progress report at the
// cursor. These never carry percentiles.
func producerProgress(s *scanner) (producerLine, bool) {
	var l producerLine
	if !s.producerPrefix(&l) || !s.literal(".") {
		return l, false
	}
	l.pct = make([]string, len(percentileClauses))
	return l, true
}

// lastMatch scans text left to right for non-overlapping matches of
// prod and returns the last one. Every production starts with a
// digit, so only digit positions are tried.
func lastMatch[T any](text string, prod func(*scanner) (T, bool)) (last T, found bool) {
	s := &scanner{src: text}
	for i := 0; i < len(text); {
		if !isDigit(text[i]) {
			i++
			continue
		}
		s.reset(i)
		if m, ok := prod(s); ok {
			last, found = m, true
			if s.pos > i {
				i = s.pos
				continue
			}
		}
		i++
	}
	return
}

// metrics converts the tokens of l into producer metrics.
func (l producerLine) metrics() (Metrics, error) {
	m := make(Metrics, 0, 5+len(percentileClauses))
	records, err := numberValue(l.records)
	if err != nil {
		return nil, err
	}
	m = append(m, Metric{RecordsSent, records})
	for _, f := range []struct{ name, tok string }{
		{ThroughputRPS, l.rps},
		{ThroughputMB, l.mb},
		{AvgLatencyMS, l.avg},
		{MaxLatencyMS, l.max},
	} {
		v, err := floatToken(f.tok)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		m = append(m, Metric{f.name, v})
	}
	for i, c := range percentileClauses {
		var v Value
		if l.pct[i] != "" {
			if v, err = numberValue(l.pct[i]); err != nil {
				return nil, fmt.Errorf("%s: %w", c.metric, err)
			}
		}
		m = append(m, Metric{c.metric, v})
	}
	return m, nil
}

// parseProducer extracts producer metrics from text. The last final
// summary wins; progress lines are consulted only when there is no
// final summary at all.
func parseProducer(text string) (Metrics, error) {
	l, ok := lastMatch(text, producerSummary)
	if !ok {
		l, ok = lastMatch(text, producerProgress)
	}
	if !ok {
		return nil, errNoMatch
	}
	return l.metrics()
}

// consumerLine is the raw token view of one consumer result line.
type consumerLine struct {
	start, end string
	fields     [8]string
}

// consumerFields describes the numeric columns of a consumer result
// line. Integer columns only accept digits.
var consumerFields = [8]struct {
	metric  string
	integer bool
}{
	{DataConsumedMB, false},
	{ThroughputMBSec, false},
	{NumMessages, true},
	{ThroughputMsgSec, false},
	{RebalanceTimeMS, true},
	{FetchTimeMS, true},
	{FetchMBSec, false},
	{FetchMsgSec, false},
}

func (s *scanner) timestamp() (string, bool) {
	start := s.mark()
	ok := s.fixedDigits(4) && s.literal("-") && s.fixedDigits(2) && s.literal("-") && s.fixedDigits(2) &&
		s.spaces(1) &&
		s.fixedDigits(2) && s.literal(":") && s.fixedDigits(2) && s.literal(":") && s.fixedDigits(2) &&
		s.literal(":") && s.fixedDigits(3)
	if !ok {
		s.reset(start)
		return "", false
	}
	return s.src[start:s.pos], true
}

func (s *scanner) sep() bool {
	if !s.literal(",") {
		return false
	}
	s.spaces(0)
	return true
}

// consumerResult matches a consumer result line at the cursor.
func consumerResult(s *scanner) (consumerLine, bool) {
	var l consumerLine
	var ok bool
	if l.start, ok = s.timestamp(); !ok || !s.sep() {
		return l, false
	}
	if l.end, ok = s.timestamp(); !ok {
		return l, false
	}
	for i, f := range consumerFields {
		if !s.sep() {
			return l, false
		}
		if f.integer {
			l.fields[i], ok = s.digits()
		} else {
			l.fields[i], ok = s.number()
		}
		if !ok {
			return l, false
		}
	}
	return l, true
}

func (l consumerLine) metrics() (Metrics, error) {
	m := make(Metrics, 0, len(consumerFields))
	for i, f := range consumerFields {
		var v Value
		var err error
		if f.integer {
			v, err = numberValue(l.fields[i])
		} else {
			v, err = floatToken(l.fields[i])
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.metric, err)
		}
		m = append(m, Metric{f.metric, v})
	}
	return m, nil
}

// parseConsumer extracts consumer metrics from the first result line
// in text. Column header lines, comments and blank lines are skipped.
func parseConsumer(text string) (l consumerLine, m Metrics, err error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "start.time") || strings.HasPrefix(line, "#") {
			continue
		}
		var ok bool
		if l, ok = firstMatch(line, consumerResult); ok {
			m, err = l.metrics()
			return l, m, err
		}
	}
	return l, nil, errNoMatch
}

// firstMatch returns the leftmost match of prod in text.
func firstMatch[T any](text string, prod func(*scanner) (T, bool)) (T, bool) {
	s := &scanner{src: text}
	for i := 0; i < len(text); i++ {
		if !isDigit(text[i]) {
			continue
		}
		s.reset(i)
		if m, ok := prod(s); ok {
			return m, true
		}
	}
	var zero T
	return zero, false
}
