// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const finalSummary = "1000000 records sent, 14637.65 records/sec (28.59 MB/sec), " +
	"3182.27 ms avg latency, 3613.00 ms max latency, " +
	"3289 ms 50th, 3467 ms 95th, 3568 ms 99th, 3603 ms 99.9th."

func metricMap(m Metrics) map[string]Value {
	out := make(map[string]Value)
	for _, x := range m {
		out[x.Name] = x.Value
	}
	return out
}

func TestProducerFinalSummary(t *testing.T) {
	m, err := parseProducer(finalSummary)
	require.NoError(t, err)
	assert.Equal(t, Metrics{
		{RecordsSent, IntValue(1000000)},
		{ThroughputRPS, FloatValue(14637.65)},
		{ThroughputMB, FloatValue(28.59)},
		{AvgLatencyMS, FloatValue(3182.27)},
		{MaxLatencyMS, FloatValue(3613)},
		{P50MS, IntValue(3289)},
		{P95MS, IntValue(3467)},
		{P99MS, IntValue(3568)},
		{P999MS, IntValue(3603)},
	}, m)
}

func TestProducerLastMatchWins(t *testing.T) {
	text := "# Producer Test - baseline\n" +
		"50000 records sent, 9999.8 records/sec (9.77 MB/sec), 120.5 ms avg latency, 400.0 ms max latency.\n" +
		"100000 records sent, 20000.0 records/sec (19.53 MB/sec), 15.2 ms avg latency, 210.0 ms max latency, 12 ms 50th, 40 ms 95th, 80 ms 99th, 200 ms 99.9th.\n" +
		"200000 records sent, 25000.0 records/sec (24.41 MB/sec), 10.0 ms avg latency, 180.0 ms max latency, 9 ms 50th, 30 ms 95th, 60 ms 99th, 170 ms 99.9th.\n"
	m, err := parseProducer(text)
	require.NoError(t, err)
	got := metricMap(m)
	assert.Equal(t, IntValue(200000), got[RecordsSent])
	assert.Equal(t, FloatValue(24.41), got[ThroughputMB])
	assert.Equal(t, IntValue(60), got[P99MS])
}

func TestProducerPercentileSubsets(t *testing.T) {
	prefix := "10 records sent, 1.0 records/sec (0.5 MB/sec), 2.0 ms avg latency, 3.0 ms max latency"
	for _, test := range []struct {
		name   string
		suffix string
		want   map[string]Value
	}{
		{"none", "", map[string]Value{P50MS: {}, P95MS: {}, P99MS: {}, P999MS: {}}},
		{"p50", ", 7 ms 50th", map[string]Value{P50MS: IntValue(7), P95MS: {}, P99MS: {}, P999MS: {}}},
		{"p95 p99.9", ", 8 ms 95th, 9 ms 99.9th", map[string]Value{P50MS: {}, P95MS: IntValue(8), P99MS: {}, P999MS: IntValue(9)}},
		{"decimal", ", 7.5 ms 50th, 9 ms 99th", map[string]Value{P50MS: FloatValue(7.5), P95MS: {}, P99MS: IntValue(9), P999MS: {}}},
		{"out of order", ", 9 ms 99th, 7 ms 50th", map[string]Value{P50MS: {}, P95MS: {}, P99MS: IntValue(9), P999MS: {}}},
	} {
		t.Run(test.name, func(t *testing.T) {
			m, err := parseProducer(prefix + test.suffix)
			require.NoError(t, err)
			got := metricMap(m)
			for k, v := range test.want {
				assert.Equal(t, v, got[k], k)
			}
		})
	}
}

func TestProducerWrappedLine(t *testing.T) {
	text := "1000 records sent,\n  500.0 records/sec (0.49 MB/sec),\n  5.0 ms avg latency,\n  9.0 ms max latency"
	m, err := parseProducer(text)
	require.NoError(t, err)
	v, ok := m.Get(AvgLatencyMS)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestProducerNoMatch(t *testing.T) {
	_, err := parseProducer("# Producer Test - nothing ran\nERROR: broker unavailable\n")
	assert.ErrorIs(t, err, errNoMatch)
}

func TestProducerMalformedNumber(t *testing.T) {
	_, err := parseProducer("10 records sent, 1.2.3 records/sec (0.5 MB/sec), 2.0 ms avg latency, 3.0 ms max latency")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errNoMatch)
}

const consumerOutput = `# Consumer Test - baseline
start.time, end.time, data.consumed.in.MB, MB.sec, data.consumed.in.nMsg, nMsg.sec, rebalance.time.ms, fetch.time.ms, fetch.MB.sec, fetch.nMsg.sec
2024-08-28 12:00:45:269, 2024-08-28 12:01:53:199, 1953.1250, 28.7520, 1000000, 14721.0364, 3330, 64600, 30.2341, 15479.8762
2024-08-28 12:02:00:000, 2024-08-28 12:03:00:000, 1.0, 2.0, 3, 4.0, 5, 6, 7.0, 8.0
`

func TestConsumerFirstLine(t *testing.T) {
	l, m, err := parseConsumer(consumerOutput)
	require.NoError(t, err)
	assert.Equal(t, "2024-08-28 12:00:45:269", l.start)
	assert.Equal(t, "2024-08-28 12:01:53:199", l.end)
	assert.Equal(t, Metrics{
		{DataConsumedMB, FloatValue(1953.125)},
		{ThroughputMBSec, FloatValue(28.752)},
		{NumMessages, IntValue(1000000)},
		{ThroughputMsgSec, FloatValue(14721.0364)},
		{RebalanceTimeMS, IntValue(3330)},
		{FetchTimeMS, IntValue(64600)},
		{FetchMBSec, FloatValue(30.2341)},
		{FetchMsgSec, FloatValue(15479.8762)},
	}, m)
}

func TestConsumerRejects(t *testing.T) {
	for _, test := range []struct {
		name string
		text string
	}{
		{"header only", "start.time, end.time, data.consumed.in.MB\n"},
		{"commented", "# 2024-08-28 12:00:45:269, 2024-08-28 12:01:53:199, 1, 2, 3, 4, 5, 6, 7, 8\n"},
		{"short timestamp", "2024-08-28 12:00:45, 2024-08-28 12:01:53, 1, 2, 3, 4, 5, 6, 7, 8\n"},
		{"fractional count", "2024-08-28 12:00:45:269, 2024-08-28 12:01:53:199, 1, 2, 3.5, 4, 5, 6, 7, 8\n"},
		{"too few fields", "2024-08-28 12:00:45:269, 2024-08-28 12:01:53:199, 1, 2, 3, 4, 5, 6, 7\n"},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := parseConsumer(test.text)
			assert.ErrorIs(t, err, errNoMatch)
		})
	}
}

func TestConsumerLeadingNoise(t *testing.T) {
	text := "WARN x: 2024-08-28 12:00:45:269,2024-08-28 12:01:53:199,1.5,2,3,4,5,6,7,8\n"
	l, m, err := parseConsumer(text)
	require.NoError(t, err)
	assert.Equal(t, "2024-08-28 12:00:45:269", l.start)
	v, _ := m.Get(DataConsumedMB)
	assert.Equal(t, 1.5, v)
}
