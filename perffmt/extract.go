// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffmt

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// An Item is one result of scanning a log directory: a *Record, a
// *SkipError, a *SyntaxError or a *ReadError.
type Item interface {
	// Pos returns the path the item was produced from.
	Pos() string
}

// ErrSkip matches every *SkipError with errors.Is.
var ErrSkip = errors.New("skipped")

var errNoMatch = errors.New("no producer or consumer result found")

// A SkipError reports a log whose test type could not be determined.
// Skips are expected and are not failures.
type SkipError struct {
	FileName string
}

func (e *SkipError) Pos() string { return e.FileName }

func (e *SkipError) Error() string {
	return fmt.Sprintf("%s: unknown log type", e.FileName)
}

func (e *SkipError) Is(target error) bool { return target == ErrSkip }

// A SyntaxError reports a log whose text matched neither output
// dialect, or whose matched numbers were malformed.
type SyntaxError struct {
	FileName string
	TestType TestType
	Msg      string
}

func (e *SyntaxError) Pos() string { return e.FileName }

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s log: %s", e.FileName, e.TestType, e.Msg)
}

// A ReadError reports a log that could not be read.
type ReadError struct {
	FileName string
	Err      error
}

func (e *ReadError) Pos() string { return e.FileName }

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %v", e.FileName, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Pos returns the path r was read from.
func (r *Record) Pos() string { return r.Source }

// sniffLen is how many characters of a log are examined when its name
// does not say which tool produced it.
const sniffLen = 1000

// Classify determines the test type of a log from its file name, or
// failing that from the start of its content. It reports false if
// neither says.
func Classify(name string, content []byte) (TestType, bool) {
	lower := strings.ToLower(filepath.Base(name))
	switch {
	case strings.Contains(lower, "producer"):
		return Producer, true
	case strings.Contains(lower, "consumer"):
		return Consumer, true
	}
	s := string(sniff(content))
	switch {
	case strings.Contains(s, "Producer") || strings.Contains(s, "records sent"):
		return Producer, true
	case strings.Contains(s, "Consumer") || strings.Contains(s, "start.time"):
		return Consumer, true
	}
	return "", false
}

// sniff returns the first sniffLen runes of content.
func sniff(content []byte) []byte {
	i := 0
	for n := 0; n < sniffLen && i < len(content); n++ {
		_, size := utf8.DecodeRune(content[i:])
		i += size
	}
	return content[:i]
}

// Extract builds a Record from the content of the log at path. It
// returns a *SkipError if the log's test type cannot be determined and
// a *SyntaxError if the log holds no result.
func Extract(path string, content []byte, now time.Time) (*Record, error) {
	tt, ok := Classify(path, content)
	if !ok {
		return nil, &SkipError{FileName: path}
	}
	return ExtractAs(tt, path, content, now)
}

// ExtractAs is like Extract but uses the given test type instead of
// classifying the log.
func ExtractAs(tt TestType, path string, content []byte, now time.Time) (*Record, error) {
	text := string(content)
	name := filepath.Base(path)

	cfg := headerConfig(text)
	cfg.Update(nameConfig(name, tt))
	canonicalize(cfg)

	r := &Record{
		TestType:  tt,
		Scenario:  scenarioOf(cfg),
		Config:    cfg,
		Source:    path,
		FileName:  name,
		ParseTime: now,
	}
	var err error
	switch tt {
	case Producer:
		r.Metrics, err = parseProducer(text)
	case Consumer:
		var l consumerLine
		l, r.Metrics, err = parseConsumer(text)
		r.StartTime, r.EndTime = l.start, l.end
	default:
		return nil, fmt.Errorf("perffmt: unknown test type %q", tt)
	}
	if err != nil {
		return nil, &SyntaxError{FileName: path, TestType: tt, Msg: err.Error()}
	}
	return r, nil
}
