// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfstat

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamlab/kperf/perffmt"
	"github.com/streamlab/kperf/perfproc"
)

var aggTime = time.Date(2024, 8, 28, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return aggTime }

func producer(acks string, batch int64, mb, lat float64, p99 perffmt.Value) *perffmt.Record {
	cfg := new(perffmt.Config)
	cfg.Set("scenario", perffmt.StringValue("s"))
	cfg.Set("acks", perffmt.StringValue(acks))
	cfg.Set("batch_size", perffmt.IntValue(batch))
	return &perffmt.Record{
		TestType: perffmt.Producer,
		Config:   cfg,
		Metrics: perffmt.Metrics{
			{Name: perffmt.ThroughputMB, Value: perffmt.FloatValue(mb)},
			{Name: perffmt.ThroughputRPS, Value: perffmt.FloatValue(mb * 1024)},
			{Name: perffmt.AvgLatencyMS, Value: perffmt.FloatValue(lat)},
			{Name: perffmt.P99MS, Value: p99},
		},
	}
}

func consumer(fetch int64, mb float64, rebalance int64) *perffmt.Record {
	cfg := new(perffmt.Config)
	cfg.Set("fetch_min_bytes", perffmt.IntValue(fetch))
	return &perffmt.Record{
		TestType: perffmt.Consumer,
		Config:   cfg,
		Metrics: perffmt.Metrics{
			{Name: perffmt.ThroughputMBSec, Value: perffmt.FloatValue(mb)},
			{Name: perffmt.ThroughputMsgSec, Value: perffmt.FloatValue(mb * 1000)},
			{Name: perffmt.RebalanceTimeMS, Value: perffmt.IntValue(rebalance)},
		},
	}
}

func testRecords() []*perffmt.Record {
	return []*perffmt.Record{
		producer("1", 16384, 20, 10, perffmt.IntValue(30)),
		producer("all", 16384, 10, 50, perffmt.Value{}),
		producer("1", 16384, 30, 20, perffmt.IntValue(40)),
		consumer(1, 40, 0),
		consumer(1, 50, 100),
	}
}

func TestAggregate(t *testing.T) {
	r := Aggregate(testRecords(), Options{Now: fixedNow})
	assert.Equal(t, 5, r.Total)
	assert.Equal(t, 3, r.Producers)
	assert.Equal(t, 2, r.Consumers)

	require.Len(t, r.Producer.Groups, 2)
	g := r.Producer.Groups[0]
	assert.Equal(t, "acks=1|batch_size=16384", g.Key)
	assert.Equal(t, 2, g.Count)
	mb := g.Stat("throughput_mb")
	assert.Equal(t, 2, mb.Count)
	assert.Equal(t, 25.0, mb.Mean)
	assert.Equal(t, 5.0, mb.Std)
	assert.Equal(t, 20.0, mb.Min)
	assert.Equal(t, 30.0, mb.Max)

	all := r.Producer.Lookup("acks=all|batch_size=16384")
	require.NotNil(t, all)
	assert.False(t, all.Stat("p99_latency_ms").Valid())

	assert.Same(t, g, r.BestProducerThroughput)
	assert.Same(t, g, r.BestProducerLatency)

	require.Len(t, r.Consumer.Groups, 1)
	rb := r.Consumer.Groups[0].Stat("rebalance_time_ms")
	assert.Equal(t, 2, rb.Count)
	assert.Equal(t, 50.0, rb.Mean)
}

func TestAggregateDropZeros(t *testing.T) {
	recs := []*perffmt.Record{
		producer("1", 1, 0, 0, perffmt.IntValue(0)),
		producer("1", 1, 10, 5, perffmt.IntValue(9)),
		consumer(1, 0, 0),
	}
	keep := Aggregate(recs, Options{})
	assert.Equal(t, 2, keep.Producer.Groups[0].Stat("throughput_mb").Count)
	assert.Equal(t, 1, keep.Consumer.Groups[0].Stat("throughput_mb_sec").Count)

	drop := Aggregate(recs, Options{DropZeros: true})
	assert.Equal(t, 1, drop.Producer.Groups[0].Stat("throughput_mb").Count)
	assert.Equal(t, 0, drop.Consumer.Groups[0].Stat("throughput_mb_sec").Count)
	// Rebalance time keeps zeros regardless.
	assert.Equal(t, 1, drop.Consumer.Groups[0].Stat("rebalance_time_ms").Count)
}

func TestAggregateSingleRecord(t *testing.T) {
	r := Aggregate([]*perffmt.Record{producer("0", 1, 28.59, 3182.27, perffmt.IntValue(3568))}, Options{})
	s := r.Producer.Groups[0].Stat("throughput_mb")
	assert.Equal(t, 0.0, s.Std)
	for _, v := range []float64{s.Mean, s.Min, s.Max, s.P50, s.P95, s.P99} {
		assert.Equal(t, 28.59, v)
	}
}

func TestBestTieBreak(t *testing.T) {
	// Equal means: the smaller key wins regardless of order.
	recs := []*perffmt.Record{
		producer("z", 1, 10, 5, perffmt.Value{}),
		producer("a", 1, 10, 5, perffmt.Value{}),
	}
	r := Aggregate(recs, Options{})
	assert.Equal(t, "acks=a|batch_size=1", r.BestProducerThroughput.Key)
	assert.Equal(t, "acks=a|batch_size=1", r.BestProducerLatency.Key)
}

func TestAggregateEmpty(t *testing.T) {
	r := Aggregate(nil, Options{Now: fixedNow})
	assert.Equal(t, 0, r.Total)
	assert.Empty(t, r.Producer.Groups)
	assert.Nil(t, r.BestProducerThroughput)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	assert.JSONEq(t, `{
		"summary": {"total_results": 0, "producer_results": 0, "consumer_results": 0,
			"unique_producer_configs": 0, "unique_consumer_configs": 0,
			"aggregation_time": "2024-08-28T12:00:00Z"},
		"best_configurations": {"producer_highest_throughput": null,
			"producer_lowest_latency": null, "consumer_highest_throughput": null},
		"producer_aggregations": {},
		"consumer_aggregations": {}
	}`, buf.String())
}

func TestWriteJSON(t *testing.T) {
	r := Aggregate(testRecords(), Options{Now: fixedNow})
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var doc struct {
		Summary struct {
			Total int `json:"total_results"`
		} `json:"summary"`
		Best map[string]*struct {
			Key       string         `json:"config_key"`
			TestCount int            `json:"test_count"`
			Config    map[string]any `json:"configuration"`
		} `json:"best_configurations"`
		Producer map[string]map[string]json.RawMessage `json:"producer_aggregations"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 5, doc.Summary.Total)
	assert.Equal(t, "acks=1|batch_size=16384", doc.Best["producer_highest_throughput"].Key)
	assert.Equal(t, 2, doc.Best["producer_highest_throughput"].TestCount)
	assert.Equal(t, "1", doc.Best["producer_highest_throughput"].Config["acks"])
	assert.Len(t, doc.Producer, 2)
	assert.JSONEq(t,
		`{"mean":null,"std":null,"min":null,"max":null,"p50":null,"p95":null,"p99":null,"count":0}`,
		string(doc.Producer["acks=all|batch_size=16384"]["p99_latency_ms"]))

	// Group keys keep first-seen order in the document.
	out := buf.String()
	assert.Less(t, strings.Index(out, `"acks=1|batch_size=16384": {`), strings.Index(out, `"acks=all|batch_size=16384": {`))
}

func TestWriteCSV(t *testing.T) {
	r := Aggregate(testRecords(), Options{Now: fixedNow})
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	want := [][]string{
		{"test_type", "config_key", "acks", "batch_size", "linger_ms", "compression", "record_size", "test_count",
			"throughput_mb_mean", "throughput_mb_std", "latency_ms_mean", "latency_ms_std",
			"fetch_min_bytes", "max_poll_records"},
		{"producer", "acks=1|batch_size=16384", "1", "16384", "", "", "", "2", "25", "5", "15", "5", "", ""},
		{"producer", "acks=all|batch_size=16384", "all", "16384", "", "", "", "1", "10", "0", "50", "0", "", ""},
		{"consumer", "fetch_min_bytes=1", "", "", "", "", "", "2", "45", "5", "", "", "1", ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Aggregate(nil, Options{})))
	assert.Equal(t, "test_type,config_key,acks,batch_size,linger_ms,compression,record_size,test_count,"+
		"throughput_mb_mean,throughput_mb_std,latency_ms_mean,latency_ms_std,fetch_min_bytes,max_poll_records\n", buf.String())
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatText(&buf, Aggregate(testRecords(), Options{})))
	out := buf.String()
	assert.Contains(t, out, "Total Results: 5")
	assert.Contains(t, out, "--- Best Producer (Throughput) ---\n  Config: acks=1|batch_size=16384\n  Mean: 25.00 MB/s")
	assert.Contains(t, out, "producer groups:")
	assert.Contains(t, out, "consumer groups:")
}

func TestCustomProjection(t *testing.T) {
	r := Aggregate(testRecords(), Options{Projection: perfproc.NewProjection("batch_size")})
	require.Len(t, r.Producer.Groups, 1)
	assert.Equal(t, 3, r.Producer.Groups[0].Count)
}
