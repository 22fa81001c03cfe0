// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfunit

import (
	"math"
	"strconv"
	"strings"
)

// A Class says how values of a unit are rendered.
type Class int

const (
	// Scaled values are counts or rates shown with an SI prefix,
	// such as "14.6k rec/s".
	Scaled Class = iota
	// Fixed values are shown with two decimals and no prefix, such
	// as "28.59 MB/s" or "3182.27 ms".
	Fixed
	// Percent values are scores in [0, 100], shown with one
	// decimal.
	Percent
)

// A Unit is the display unit of a metric.
type Unit struct {
	Name  string
	Class Class
}

// UnitOf returns the display unit of a metric or aggregated column
// name. Unknown names get an unnamed Fixed unit.
func UnitOf(metric string) Unit {
	switch {
	case strings.HasPrefix(metric, "score") || strings.HasSuffix(metric, "_score"):
		return Unit{"", Percent}
	case strings.HasSuffix(metric, "_ms"):
		return Unit{"ms", Fixed}
	case strings.HasPrefix(metric, "throughput_mb") || strings.HasSuffix(metric, "mb_sec"):
		return Unit{"MB/s", Fixed}
	case strings.HasSuffix(metric, "_mb"):
		return Unit{"MB", Fixed}
	case metric == "throughput_rps" || strings.HasSuffix(metric, "msg_sec"):
		return Unit{"rec/s", Scaled}
	case metric == "records_sent" || metric == "num_messages" || metric == "num_records":
		return Unit{"records", Scaled}
	}
	return Unit{"", Fixed}
}

// Format renders v in u. NaN renders as "-".
func (u Unit) Format(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	var s string
	switch u.Class {
	case Scaled:
		s = Scale(v)
	case Percent:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		s = strconv.FormatFloat(v, 'f', 2, 64)
	}
	if u.Name != "" {
		s += " " + u.Name
	}
	return s
}

// Format renders v as a value of the named metric.
func Format(metric string, v float64) string {
	return UnitOf(metric).Format(v)
}
