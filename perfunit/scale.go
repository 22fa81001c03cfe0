// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perfunit formats performance metrics for people to read.
package perfunit

import (
	"fmt"
	"math"
	"strconv"
)

// A Scaler represents a scaling factor for a number and its SI
// prefix.
type Scaler struct {
	Prec   int     // Digits after the decimal point
	Factor float64 // Unscaled value of 1 Prefix (e.g., 1 k => 1000)
	Prefix string  // Unit prefix ("k", "M", etc)
}

// Format formats val and appends the unit prefix according to the
// scale. For example, Scale(1234567) formats as "1.23M".
func (s Scaler) Format(val float64) string {
	buf := make([]byte, 0, 20)
	buf = strconv.AppendFloat(buf, val/s.Factor, 'f', s.Prec, 64)
	buf = append(buf, s.Prefix...)
	return string(buf)
}

// NoOpScaler formats numbers with the smallest number of digits
// necessary to capture the exact value, and no prefix. It is used
// for machine-readable output such as CSV.
var NoOpScaler = Scaler{-1, 1, ""}

type factor struct {
	factor float64
	prefix string
	// Thresholds for 100.0, 10.00, 1.000.
	t100, t10, t1 float64
}

// Counts and rates never need fractional prefixes: a throughput
// below 1 rec/s prints with more decimals instead.
var siFactors = mkSIFactors()

func mkSIFactors() []factor {
	// Build the thresholds by parsing printed representations so
	// that they match exactly how printing will round.
	var factors []factor
	exp := 12
	for _, p := range []string{"T", "G", "M", "k", ""} {
		t100, _ := strconv.ParseFloat(fmt.Sprintf("99.995e%d", exp), 64)
		t10, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		t1, _ := strconv.ParseFloat(fmt.Sprintf(".99995e%d", exp), 64)
		factors = append(factors, factor{math.Pow(10, float64(exp)), p, t100, t10, t1})
		exp -= 3
	}
	return factors
}

// Scale formats val with at least three significant digits and an
// SI prefix.
func Scale(val float64) string {
	return CommonScale([]float64{val}).Format(val)
}

// CommonScale returns a common Scaler to apply to all values in vals.
// The scale shows at least three significant digits for every value.
func CommonScale(vals []float64) Scaler {
	// The common scale is determined by the non-zero value
	// closest to zero.
	var min float64
	for _, v := range vals {
		v = math.Abs(v)
		if v != 0 && !math.IsNaN(v) && (min == 0 || v < min) {
			min = v
		}
	}
	if min == 0 {
		return Scaler{3, 1, ""}
	}
	for _, f := range siFactors {
		switch {
		case min >= f.t100:
			return Scaler{1, f.factor, f.prefix}
		case min >= f.t10:
			return Scaler{2, f.factor, f.prefix}
		case min >= f.t1:
			return Scaler{3, f.factor, f.prefix}
		}
	}
	// Below 1: add decimals until three significant digits show,
	// up to ten.
	prec := 3
	for t := 0.099995; min < t && prec < 10; t /= 10 {
		prec++
	}
	return Scaler{prec, 1, ""}
}
