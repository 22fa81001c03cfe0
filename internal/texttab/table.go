// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out plain-text tables.
package texttab

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables.
//
// Methods return the Table so callers can chain them to build up a
// row at once:
//
//	t.Row().Cell("acks").Cell("MB/s", Right)
type Table struct {
	rows  [][]textCell
	rules map[int]bool // rows followed by a rule line
	cols  int
}

type textCell struct {
	value     string
	alignment align
}

// A CellOption adjusts a cell.
type CellOption func(c *textCell)

var (
	Left  CellOption = func(c *textCell) { c.alignment = alignLeft }
	Right CellOption = func(c *textCell) { c.alignment = alignRight }
)

type align int

const (
	alignLeft align = iota
	alignRight
)

func (a align) pad(s string, w int) string {
	n := w - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if a == alignRight {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// Row starts a new row in table t.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, nil)
	return t
}

// Cell adds a cell to the current row.
func (t *Table) Cell(value string, opts ...CellOption) *Table {
	if len(t.rows) == 0 {
		t.Row()
	}
	c := textCell{value: value}
	for _, o := range opts {
		o(&c)
	}
	last := len(t.rows) - 1
	t.rows[last] = append(t.rows[last], c)
	if n := len(t.rows[last]); n > t.cols {
		t.cols = n
	}
	return t
}

// Rule draws a horizontal line under the current row.
func (t *Table) Rule() *Table {
	if t.rules == nil {
		t.rules = make(map[int]bool)
	}
	t.rules[len(t.rows)-1] = true
	return t
}

// Format lays out table t and writes it to w. Columns are separated
// by two spaces and trailing blanks are trimmed.
func (t *Table) Format(w io.Writer) error {
	ws := make([]int, t.cols)
	for _, row := range t.rows {
		for i, c := range row {
			if n := utf8.RuneCountInString(c.value); n > ws[i] {
				ws[i] = n
			}
		}
	}
	total := 0
	for i, n := range ws {
		if i > 0 {
			total += 2
		}
		total += n
	}

	for ri, row := range t.rows {
		var line strings.Builder
		for i, c := range row {
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(c.alignment.pad(c.value, ws[i]))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
		if t.rules[ri] {
			if _, err := fmt.Fprintln(w, strings.Repeat("-", total)); err != nil {
				return err
			}
		}
	}
	return nil
}
