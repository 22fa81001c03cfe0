// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the run configuration of the kperf command.
//
// Configuration is resolved in order of increasing precedence:
//
//  1. Built-in defaults (Default)
//  2. A YAML file (Load)
//  3. Command-line flags, applied by the command itself
//
// Call Validate once all sources have been applied.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/streamlab/kperf/perffmt"
	"github.com/streamlab/kperf/perfscore"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatText = "text"
	FormatHTML = "html"
)

var formats = []string{FormatJSON, FormatCSV, FormatText, FormatHTML}

// Config is the run configuration.
type Config struct {
	// Input is a log directory, a directory of structured files, or
	// a database query, depending on the command.
	Input string `yaml:"input"`
	// Output is a file path, a gs://bucket/object URL, or "-" for
	// standard output. Empty selects a per-command default.
	Output string `yaml:"output"`
	// Format is one of the Format constants. Empty selects a
	// per-command default.
	Format string `yaml:"format"`

	Verbose bool `yaml:"verbose"`
	// PerRecord writes one structured file per extracted record
	// instead of a single batch file.
	PerRecord bool   `yaml:"per_record"`
	Pattern   string `yaml:"pattern"`
	// DropZeros treats zero measurements as missing during
	// aggregation.
	DropZeros bool `yaml:"drop_zeros"`
	// Filter is a perfproc filter query applied to loaded records.
	Filter string `yaml:"filter"`

	DB    DB    `yaml:"db"`
	Score Score `yaml:"score"`
	Chart Chart `yaml:"chart"`
}

// DB selects a record database.
type DB struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Query selects records by label, as in storage/db.
	Query string `yaml:"query"`
}

// Enabled reports whether a database is configured.
func (d DB) Enabled() bool {
	return d.Driver != ""
}

// Score configures the scoring board output.
type Score struct {
	Objective string `yaml:"objective"`
	Top       int    `yaml:"top"`
}

// Chart configures PNG charts.
type Chart struct {
	// Path is where the knee chart is written. Empty disables it.
	Path string `yaml:"path"`
	// ScalingPath is where the scaling chart is written. Empty
	// disables it.
	ScalingPath string  `yaml:"scaling_path"`
	Width       float64 `yaml:"width_cm"`
	Height      float64 `yaml:"height_cm"`
	DPI         int     `yaml:"dpi"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Pattern: perffmt.DefaultPattern,
		Score: Score{
			Objective: perfscore.Balanced.String(),
			Top:       5,
		},
		Chart: Chart{Width: 24, Height: 15, DPI: 96},
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is like Load but reads the YAML document from data.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// ParseDB parses a database argument of the form driver:dsn, as in
// "sqlite3:records.db".
func ParseDB(arg string) (DB, error) {
	driver, dsn, ok := strings.Cut(arg, ":")
	if !ok || driver == "" || dsn == "" {
		return DB{}, fmt.Errorf("database %q is not of the form driver:dsn", arg)
	}
	return DB{Driver: driver, DSN: dsn}, nil
}

// Validate checks c for invalid values.
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.New("no input given")
	}
	if c.Format != "" && !contains(formats, c.Format) {
		return fmt.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(formats, ", "))
	}
	if _, err := perfscore.ParseObjective(c.Score.Objective); err != nil {
		return err
	}
	if c.Score.Top < 0 {
		return fmt.Errorf("invalid top count: %d", c.Score.Top)
	}
	switch c.DB.Driver {
	case "", "sqlite3", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DB.Driver)
	}
	if c.DB.Enabled() && c.DB.DSN == "" {
		return fmt.Errorf("database driver %q given without a dsn", c.DB.Driver)
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 || c.Chart.DPI <= 0 {
		return fmt.Errorf("invalid chart size %gx%g cm at %d dpi", c.Chart.Width, c.Chart.Height, c.Chart.DPI)
	}
	return nil
}

// String returns a representation of c safe for logging. The
// database DSN, which may hold credentials, is left out.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Input: %s, Output: %s, Format: %s, DB: %s, Objective: %s}",
		c.Input, c.Output, c.Format, c.DB.Driver, c.Score.Objective)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
