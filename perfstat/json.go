// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfstat

import (
	"bytes"
	"encoding/json"
	"io"
	"time"
)

// object builds a JSON object whose members keep insertion order.
type object struct {
	buf bytes.Buffer
	n   int
	err error
}

func (o *object) add(key string, v any) {
	if o.err != nil {
		return
	}
	k, err := json.Marshal(key)
	if err != nil {
		o.err = err
		return
	}
	val, err := json.Marshal(v)
	if err != nil {
		o.err = err
		return
	}
	if o.n == 0 {
		o.buf.WriteByte('{')
	} else {
		o.buf.WriteByte(',')
	}
	o.n++
	o.buf.Write(k)
	o.buf.WriteByte(':')
	o.buf.Write(val)
}

func (o *object) bytes() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}
	if o.n == 0 {
		return []byte("{}"), nil
	}
	return append(o.buf.Bytes(), '}'), nil
}

// groupMembers adds the members of g's JSON form to o.
func groupMembers(o *object, g *Group) {
	o.add("configuration", g.Config)
	o.add("test_count", g.Count)
	for _, s := range g.Stats {
		o.add(s.Name, s.Summary)
	}
}

// MarshalJSON encodes g as {"configuration", "test_count", <metric>...}.
func (g *Group) MarshalJSON() ([]byte, error) {
	var o object
	groupMembers(&o, g)
	return o.bytes()
}

// bestJSON is a best pick: the group members preceded by its key.
type bestJSON struct{ g *Group }

func (b bestJSON) MarshalJSON() ([]byte, error) {
	if b.g == nil {
		return []byte("null"), nil
	}
	var o object
	o.add("config_key", b.g.Key)
	groupMembers(&o, b.g)
	return o.bytes()
}

// MarshalJSON encodes c as an object from group key to group, in
// group order.
func (c *Collection) MarshalJSON() ([]byte, error) {
	var o object
	for _, g := range c.Groups {
		o.add(g.Key, g)
	}
	return o.bytes()
}

// MarshalJSON encodes the summary document.
func (r *Report) MarshalJSON() ([]byte, error) {
	var summary object
	summary.add("total_results", r.Total)
	summary.add("producer_results", r.Producers)
	summary.add("consumer_results", r.Consumers)
	summary.add("unique_producer_configs", len(r.Producer.Groups))
	summary.add("unique_consumer_configs", len(r.Consumer.Groups))
	summary.add("aggregation_time", r.Time.Format(time.RFC3339Nano))
	s, err := summary.bytes()
	if err != nil {
		return nil, err
	}

	var best object
	best.add("producer_highest_throughput", bestJSON{r.BestProducerThroughput})
	best.add("producer_lowest_latency", bestJSON{r.BestProducerLatency})
	best.add("consumer_highest_throughput", bestJSON{r.BestConsumerThroughput})
	b, err := best.bytes()
	if err != nil {
		return nil, err
	}

	var o object
	o.add("summary", json.RawMessage(s))
	o.add("best_configurations", json.RawMessage(b))
	o.add("producer_aggregations", r.Producer)
	o.add("consumer_aggregations", r.Consumer)
	return o.bytes()
}

// WriteJSON writes r to w as an indented summary document.
func WriteJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
