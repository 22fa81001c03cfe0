// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamlab/kperf/perffmt"
)

const logDir = "testdata/logs"

// run executes kperf with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// parsed parses the test logs into a fresh directory and returns it.
func parsed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := run(t, "parse", logDir, dir, "--output-file", "all.json")
	require.NoError(t, err)
	return dir
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "parse", logDir, dir, "-f", "all.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Parsed 4 log files. Results saved to: "+filepath.Join(dir, "all.json"))
	assert.Contains(t, out, "Producer tests: 3\n  Consumer tests: 1\n")

	f, err := os.Open(filepath.Join(dir, "all.json"))
	require.NoError(t, err)
	defer f.Close()
	recs, err := perffmt.ReadJSON(f, "all.json")
	require.NoError(t, err)
	require.Len(t, recs, 4)
	// Logs are visited in file name order.
	assert.Equal(t, "consumer_baseline_fetch1024.log", recs[0].FileName)
	v, _ := recs[3].Get("acks")
	assert.Equal(t, "all", v.String())
}

func TestParseIndividual(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "parse", logDir, dir, "--individual")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 4 individual JSON files to "+dir)
	for _, name := range []string{
		"consumer_baseline_fetch1024.json",
		"producer_baseline_acks1.json",
		"producer_batching_acks1.json",
		"producer_durable_acksall.json",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestParsePattern(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "parse", logDir, dir, "--pattern", "consumer_*.log", "-f", "c.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Parsed 1 log files.")
}

func TestParseMissingDir(t *testing.T) {
	_, err := run(t, "parse", filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.Error(t, err)
}

func TestParseNoResults(t *testing.T) {
	out := t.TempDir()
	_, err := run(t, "parse", t.TempDir(), out)
	require.NoError(t, err)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAggregate(t *testing.T) {
	dir := parsed(t)
	dest := filepath.Join(t.TempDir(), "agg.json")
	out, err := run(t, "aggregate", dir, dest, "--print-summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 4 test results")
	assert.Contains(t, out, "Aggregated results saved to: "+dest)
	assert.Contains(t, out, "Total Results: 4")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var doc struct {
		Summary struct {
			Total int `json:"total_results"`
		} `json:"summary"`
		Best map[string]struct {
			Key string `json:"config_key"`
		} `json:"best_configurations"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 4, doc.Summary.Total)
	assert.Equal(t, "acks=1|batch_size=131072|compression_type=zstd|linger_ms=50|record_size=1024",
		doc.Best["producer_highest_throughput"].Key)
}

func TestAggregateEmpty(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "agg.json")
	out, err := run(t, "aggregate", t.TempDir(), dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 0 test results")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var doc struct {
		Summary struct {
			Total int `json:"total_results"`
		} `json:"summary"`
		Producer map[string]json.RawMessage `json:"producer_aggregations"`
		Consumer map[string]json.RawMessage `json:"consumer_aggregations"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 0, doc.Summary.Total)
	assert.Empty(t, doc.Producer)
	assert.Empty(t, doc.Consumer)
}

func TestAggregateCSV(t *testing.T) {
	dir := parsed(t)
	dest := filepath.Join(t.TempDir(), "agg.csv")
	_, err := run(t, "aggregate", dir, dest, "--format", "csv", "--filter", ".type:producer")
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "test_type,config_key,"))
}

func TestAggregateBadFormat(t *testing.T) {
	_, err := run(t, "aggregate", parsed(t), filepath.Join(t.TempDir(), "x"), "--format", "xlsx")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := parsed(t)
	dest := filepath.Join(t.TempDir(), "agg.csv")
	cfg := filepath.Join(t.TempDir(), "kperf.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: csv\noutput: "+dest+"\n"), 0o644))

	_, err := run(t, "--config", cfg, "aggregate", dir)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "test_type,"))
}

func TestScore(t *testing.T) {
	dir := parsed(t)
	dest := filepath.Join(t.TempDir(), "board.json")
	_, err := run(t, "score", dir, dest, "--format", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var board struct {
		Best map[string]*struct {
			Acks         string  `json:"acks"`
			ThroughputMB float64 `json:"throughput_mb"`
		} `json:"best"`
		Rows []json.RawMessage `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(data, &board))
	assert.Len(t, board.Rows, 3)
	assert.Equal(t, 45.5, board.Best["throughput"].ThroughputMB)
	assert.Equal(t, "all", board.Best["durability"].Acks)
}

func TestScoreConfigFormat(t *testing.T) {
	dir := parsed(t)
	dest := filepath.Join(t.TempDir(), "board.json")
	cfg := filepath.Join(t.TempDir(), "kperf.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: json\n"), 0o644))

	_, err := run(t, "--config", cfg, "score", dir, dest)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, json.Valid(data), "format from the config file is kept")

	_, err = run(t, "--config", cfg, "score", dir, dest, "--format", "text")
	require.NoError(t, err)
	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Scored producer records: 3")
}

func TestScoreText(t *testing.T) {
	dir := parsed(t)
	dest := filepath.Join(t.TempDir(), "board.txt")
	_, err := run(t, "score", dir, dest, "--objective", "durability", "--top", "2")
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Scored producer records: 3")

	_, err = run(t, "score", dir, dest, "--objective", "fastest")
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	dir := parsed(t)
	outDir := t.TempDir()
	dest := filepath.Join(outDir, "report.html")
	knee := filepath.Join(outDir, "knee.png")
	out, err := run(t, "report", dir, dest, "--chart", knee, "--scaling-chart", filepath.Join(outDir, "scaling.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "Report saved to: "+dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "<h2>By acks</h2>")
	assert.Contains(t, html, "<h2>By batch_size</h2>")
	assert.Contains(t, html, `<img src="knee.png"`)
	assert.Contains(t, html, `<img src="scaling.png"`)
	assert.FileExists(t, knee)
}

func TestStore(t *testing.T) {
	dir := parsed(t)
	dsn := filepath.Join(t.TempDir(), "records.db")

	out, err := run(t, "store", dir, "--db", "sqlite3:"+dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored 4 records in upload ")

	out, err = run(t, "aggregate", dir, "-", "--db", "sqlite3:"+dsn, "--query", "acks:all", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 1 test results")

	_, err = run(t, "store", dir)
	assert.Error(t, err, "store needs a database")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "(sqlite 3.")
}

func TestImageRef(t *testing.T) {
	for _, tc := range []struct {
		report, chart, want string
	}{
		{"out/report.html", "out/knee.png", "knee.png"},
		{"out/report.html", "out/img/knee.png", "img/knee.png"},
		{"gs://perf/r/report.html", "gs://perf/r/knee.png", "knee.png"},
		{"gs://perf/r/report.html", "gs://other/knee.png", "gs://other/knee.png"},
		{"report.html", "gs://perf/knee.png", "gs://perf/knee.png"},
	} {
		assert.Equal(t, tc.want, imageRef(tc.report, tc.chart), tc.report+" "+tc.chart)
	}
}
