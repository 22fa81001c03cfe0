// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfunit

import (
	"math"
	"testing"
)

func TestScale(t *testing.T) {
	var cases = []struct {
		val  float64
		want string
	}{
		{0, "0.000"},
		{1, "1.000"},
		{9.9994, "9.999"},
		{9.9995, "10.00"},
		{999.95, "1.000k"},
		{14637.65, "14.64k"},
		{1000000, "1.000M"},
		{123456789, "123.5M"},
		{0.5, "0.500"},
		{0.01234, "0.0123"},
		{-2500, "-2.500k"},
	}
	for _, c := range cases {
		if got := Scale(c.val); got != c.want {
			t.Errorf("Scale(%v) = %s, want %s", c.val, got, c.want)
		}
	}
}

func TestCommonScale(t *testing.T) {
	s := CommonScale([]float64{14637.65, 1500, 0})
	if got := s.Format(14637.65); got != "14.638k" {
		t.Errorf("got %s", got)
	}
	if got := s.Format(1500); got != "1.500k" {
		t.Errorf("got %s", got)
	}
}

func TestFormat(t *testing.T) {
	var cases = []struct {
		metric string
		val    float64
		want   string
	}{
		{"throughput_mb", 28.59, "28.59 MB/s"},
		{"throughput_mb_sec", 28.752, "28.75 MB/s"},
		{"avg_latency_ms", 3182.27, "3182.27 ms"},
		{"throughput_rps", 14637.65, "14.64k rec/s"},
		{"records_sent", 1000000, "1.000M records"},
		{"data_consumed_mb", 1953.1251, "1953.13 MB"},
		{"score_balanced", 81.234, "81.2"},
		{"latency_score", 50, "50.0"},
		{"other", 1.5, "1.50"},
		{"avg_latency_ms", math.NaN(), "-"},
	}
	for _, c := range cases {
		if got := Format(c.metric, c.val); got != c.want {
			t.Errorf("Format(%s, %v) = %s, want %s", c.metric, c.val, got, c.want)
		}
	}
}
