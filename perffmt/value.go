// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// A Kind is the dynamic type of a Value.
type Kind uint8

const (
	// Null is the zero Kind. It represents an absent value,
	// such as a percentile that a log line did not report.
	Null Kind = iota
	Int
	Float
	String
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// A Value is a scalar configuration or metric value.
//
// Values are small and are passed by value. The zero Value is null.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
}

// IntValue returns an Int Value.
func IntValue(v int64) Value { return Value{Kind: Int, Int: v} }

// FloatValue returns a Float Value.
func FloatValue(v float64) Value { return Value{Kind: Float, Float: v} }

// StringValue returns a String Value.
func StringValue(v string) Value { return Value{Kind: String, Str: v} }

// IsNull reports whether v is the null Value.
func (v Value) IsNull() bool { return v.Kind == Null }

// Number returns v as a float64. It reports false for String and
// Null values.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case Int:
		return float64(v.Int), true
	case Float:
		return v.Float, true
	}
	return 0, false
}

// String renders v in its canonical textual form. Integral floats
// keep a trailing ".0" so that 10.0 and 10 remain distinct.
func (v Value) String() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return formatFloat(v.Float)
	case String:
		return v.Str
	}
	return "null"
}

// Equal reports whether v and w have the same kind and value.
func (v Value) Equal(w Value) bool {
	if v.Kind != w.Kind {
		return false
	}
	switch v.Kind {
	case Int:
		return v.Int == w.Int
	case Float:
		return v.Float == w.Float || (math.IsNaN(v.Float) && math.IsNaN(w.Float))
	case String:
		return v.Str == w.Str
	}
	return true
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// Coerce converts a literal from log text into a Value.
//
// A literal made only of ASCII digits becomes an Int. A literal that
// is only digits once its dots are removed becomes a Float if it
// parses as one. Anything else, including an Int that overflows,
// stays a String.
func Coerce(lit string) Value {
	if isDigits(lit) {
		if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return IntValue(n)
		}
		return StringValue(lit)
	}
	if isDigits(strings.ReplaceAll(lit, ".", "")) {
		if f, err := strconv.ParseFloat(lit, 64); err == nil {
			return FloatValue(f)
		}
	}
	return StringValue(lit)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// numberValue converts a numeric grammar token into a Value, keeping
// integer literals integral.
func numberValue(tok string) (Value, error) {
	if isDigits(tok) {
		n, err := strconv.ParseInt(tok, 10, 64)
		if err == nil {
			return IntValue(n), nil
		}
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return Value{}, fmt.Errorf("malformed number %q", tok)
	}
	return FloatValue(f), nil
}

// floatToken converts a numeric token that always denotes a float.
func floatToken(tok string) (Value, error) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return Value{}, fmt.Errorf("malformed number %q", tok)
	}
	return FloatValue(f), nil
}

// MarshalJSON encodes v as a JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case Int:
		return strconv.AppendInt(nil, v.Int, 10), nil
	case Float:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return []byte("null"), nil
		}
		return []byte(formatFloat(v.Float)), nil
	case String:
		return json.Marshal(v.Str)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes a JSON scalar. Number literals containing a
// fraction or exponent decode as Float, other numbers as Int.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = StringValue(string(data))
		return nil
	}
	return v.setNumber(json.Number(data))
}

func (v *Value) setNumber(n json.Number) error {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			*v = IntValue(i)
			return nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("perffmt: bad number %q", s)
	}
	*v = FloatValue(f)
	return nil
}
