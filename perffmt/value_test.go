// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffmt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	for _, test := range []struct {
		lit  string
		want Value
	}{
		{"16384", IntValue(16384)},
		{"0", IntValue(0)},
		{"10.5", FloatValue(10.5)},
		{"10.", FloatValue(10)},
		{"1.2.3", StringValue("1.2.3")},
		{"zstd", StringValue("zstd")},
		{"-1", StringValue("-1")},
		{"", StringValue("")},
		{"99999999999999999999", StringValue("99999999999999999999")},
	} {
		t.Run(test.lit, func(t *testing.T) {
			assert.Equal(t, test.want, Coerce(test.lit))
		})
	}
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "16384", IntValue(16384).String())
	assert.Equal(t, "10.0", FloatValue(10).String())
	assert.Equal(t, "28.59", FloatValue(28.59).String())
	assert.Equal(t, "1e+16", FloatValue(1e16).String())
	assert.Equal(t, "all", StringValue("all").String())
	assert.Equal(t, "null", Value{}.String())
}

func TestValueJSON(t *testing.T) {
	var got []Value
	require.NoError(t, json.Unmarshal([]byte(`[1, 1.0, 2.5e3, "x", null, true]`), &got))
	assert.Equal(t, []Value{
		IntValue(1),
		FloatValue(1),
		FloatValue(2500),
		StringValue("x"),
		{},
		StringValue("true"),
	}, got)

	data, err := json.Marshal([]Value{IntValue(3), FloatValue(3), StringValue("a"), {}})
	require.NoError(t, err)
	assert.Equal(t, `[3,3.0,"a",null]`, string(data))
}

func TestConfigOrder(t *testing.T) {
	var c Config
	c.Set("b", IntValue(1))
	c.Set("a", IntValue(2))
	c.Set("b", IntValue(3))
	assert.Equal(t, []string{"b", "a"}, c.Keys())
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, IntValue(3), v)

	c2 := c.Clone()
	c2.Set("c", IntValue(4))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, c2.Len())
}
