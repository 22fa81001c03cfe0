// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffmt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DefaultPattern selects the log files of a directory.
const DefaultPattern = "*.log"

// A Files extracts records from every log in a directory.
//
// Logs are visited in sorted file name order, so results that depend
// on order, such as which record represents a group, are reproducible
// for a given set of files. A problem with one log never stops the
// scan: it is returned as an Item of its own.
type Files struct {
	// Dir is the directory to scan.
	Dir string

	// Pattern is a filepath.Match pattern for the base names of
	// logs. If empty, DefaultPattern is used.
	Pattern string

	// Now returns the parse time stamped on records. If nil,
	// time.Now is used.
	Now func() time.Time

	// paths is the sequence of remaining logs, or nil if this
	// Files has not started yet.
	paths []string

	item Item
	err  error
}

// init does first-use initialization of f.
func (f *Files) init() {
	f.paths = []string{}
	info, err := os.Stat(f.Dir)
	if err != nil {
		f.err = err
		return
	}
	if !info.IsDir() {
		f.err = fmt.Errorf("%s: not a directory", f.Dir)
		return
	}
	pattern := f.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := filepath.Glob(filepath.Join(filepath.Clean(f.Dir), pattern))
	if err != nil {
		f.err = err
		return
	}
	sort.Strings(matches)
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.IsDir() {
			continue
		}
		f.paths = append(f.paths, m)
	}
}

// Len returns the number of logs left to scan.
func (f *Files) Len() int {
	if f.paths == nil {
		f.init()
	}
	return len(f.paths)
}

// Scan advances to the next log and reports whether there was one.
// The caller should use Result to get the outcome for that log. When
// Scan returns false, the caller should use Err to check whether
// the directory itself could not be read.
func (f *Files) Scan() bool {
	if f.paths == nil {
		f.init()
	}
	if f.err != nil || len(f.paths) == 0 {
		return false
	}
	path := f.paths[0]
	f.paths = f.paths[1:]

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	content, err := os.ReadFile(path)
	if err != nil {
		f.item = &ReadError{FileName: path, Err: err}
		return true
	}
	rec, err := Extract(path, content, now())
	switch err := err.(type) {
	case nil:
		f.item = rec
	case Item:
		f.item = err
	default:
		f.item = &ReadError{FileName: path, Err: err}
	}
	return true
}

// Result returns the item produced by the last call to Scan.
func (f *Files) Result() Item {
	return f.item
}

// Err returns the error that prevented the directory from being
// scanned, if any.
func (f *Files) Err() error {
	return f.err
}

// ParseDir extracts a record from every log in dir matching pattern.
// It returns the records in file order along with one error per log
// that was skipped or failed. The returned error is non-nil only if
// dir itself could not be read.
func ParseDir(dir, pattern string) ([]*Record, []error, error) {
	f := &Files{Dir: dir, Pattern: pattern}
	var recs []*Record
	var problems []error
	for f.Scan() {
		switch it := f.Result().(type) {
		case *Record:
			recs = append(recs, it)
		case error:
			problems = append(problems, it)
		}
	}
	return recs, problems, f.Err()
}
