// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// JSON layout of a record:
//
//	{
//	  "test_type": "producer",
//	  "scenario": "baseline",
//	  "configuration": {"acks": "1", "batch_size": 16384, ...},
//	  "metrics": {"records_sent": 1000000, "throughput_mb": 28.59, ...},
//	  "filepath": "logs/producer_baseline.log",
//	  "filename": "producer_baseline.log",
//	  "parse_time": "2024-08-28T12:00:45.269Z"
//	}
//
// Consumer metrics additionally begin with "start_time" and
// "end_time" strings. Object keys keep their order in both
// directions.

// MarshalJSON encodes c as a JSON object in key order.
func (c *Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into c, keeping key order.
func (c *Config) UnmarshalJSON(data []byte) error {
	*c = Config{}
	return decodeObject(data, func(key string, v Value) {
		c.Set(key, v)
	})
}

func writeMember(buf *bytes.Buffer, key string, v any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

// decodeObject calls fn for each member of the JSON object in data,
// in order. A JSON null decodes as an empty object. Nested objects
// and arrays are kept as their JSON text.
func decodeObject(data []byte, fn func(key string, v Value)) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, found %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var v Value
		if b := bytes.TrimSpace(raw); len(b) > 0 && (b[0] == '{' || b[0] == '[') {
			v = StringValue(string(b))
		} else if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		fn(key, v)
	}
	_, err = dec.Token()
	return err
}

// jsonRecord is the wire form of a Record.
type jsonRecord struct {
	TestType      TestType        `json:"test_type"`
	Scenario      string          `json:"scenario"`
	Configuration *Config         `json:"configuration"`
	Metrics       json.RawMessage `json:"metrics"`
	FilePath      string          `json:"filepath,omitempty"`
	FileName      string          `json:"filename,omitempty"`
	ParseTime     string          `json:"parse_time,omitempty"`
}

// MarshalJSON encodes r in the structured record layout.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	member := func(k string, v any) error {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		return writeMember(&buf, k, v)
	}
	if r.StartTime != "" || r.EndTime != "" {
		member("start_time", r.StartTime)
		member("end_time", r.EndTime)
	}
	for _, m := range r.Metrics {
		if err := member(m.Name, m.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	cfg := r.Config
	if cfg == nil {
		cfg = new(Config)
	}
	jr := jsonRecord{
		TestType:      r.TestType,
		Scenario:      r.Scenario,
		Configuration: cfg,
		Metrics:       buf.Bytes(),
		FilePath:      r.Source,
		FileName:      r.FileName,
	}
	if !r.ParseTime.IsZero() {
		jr.ParseTime = r.ParseTime.Format(time.RFC3339Nano)
	}
	return json.Marshal(jr)
}

// parseTimeLayouts are the accepted forms of "parse_time". Records
// written by other tools may omit the zone.
var parseTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON decodes a record in the structured record layout.
// The acks setting is canonicalized as it is during extraction.
func (r *Record) UnmarshalJSON(data []byte) error {
	var jr jsonRecord
	if err := json.Unmarshal(data, &jr); err != nil {
		return err
	}
	*r = Record{
		TestType: jr.TestType,
		Scenario: jr.Scenario,
		Config:   jr.Configuration,
		Source:   jr.FilePath,
		FileName: jr.FileName,
	}
	if r.Config == nil {
		r.Config = new(Config)
	}
	canonicalize(r.Config)
	if r.Scenario == "" {
		r.Scenario = scenarioOf(r.Config)
	}
	if len(jr.Metrics) > 0 {
		err := decodeObject(jr.Metrics, func(key string, v Value) {
			switch {
			case key == "start_time" && v.Kind == String:
				r.StartTime = v.Str
			case key == "end_time" && v.Kind == String:
				r.EndTime = v.Str
			default:
				r.Metrics = append(r.Metrics, Metric{key, v})
			}
		})
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	if jr.ParseTime != "" {
		for _, layout := range parseTimeLayouts {
			if t, err := time.Parse(layout, jr.ParseTime); err == nil {
				r.ParseTime = t
				break
			}
		}
	}
	return nil
}

// WriteJSON writes recs to w as an indented JSON array.
func WriteJSON(w io.Writer, recs []*Record) error {
	if recs == nil {
		recs = []*Record{}
	}
	return writeIndented(w, recs)
}

// WriteRecordJSON writes a single record to w as an indented JSON
// object.
func WriteRecordJSON(w io.Writer, rec *Record) error {
	return writeIndented(w, rec)
}

func writeIndented(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ReadJSON reads structured records from r. The input may hold a
// single record object or an array of them. name identifies the
// input in errors.
func ReadJSON(r io.Reader, name string) ([]*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var recs []*Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		// Drop JSON nulls.
		out := recs[:0]
		for _, rec := range recs {
			if rec != nil {
				out = append(out, rec)
			}
		}
		return out, nil
	}
	rec := new(Record)
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return []*Record{rec}, nil
}

// LoadDir reads every *.json file in dir in sorted order and returns
// the records of all of them as one collection. Files that cannot be
// read or decoded are reported in the returned slice of errors and
// otherwise ignored. The final error is non-nil only if dir itself
// cannot be read.
func LoadDir(dir string) ([]*Record, []error, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s: not a directory", dir)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(paths)

	var recs []*Record
	var problems []error
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			problems = append(problems, &ReadError{FileName: path, Err: err})
			continue
		}
		batch, err := ReadJSON(f, path)
		f.Close()
		if err != nil {
			problems = append(problems, err)
			continue
		}
		recs = append(recs, batch...)
	}
	return recs, problems, nil
}
