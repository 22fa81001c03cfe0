// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffmt

import (
	"unicode"
	"unicode/utf8"
)

// A scanner is a cursor over log text used by the dialect grammars.
//
// Every matching method either consumes its token and reports true,
// or leaves the cursor where it was and reports false. None of the
// dialect grammars needs backtracking past a single token, so a
// production that fails part-way restores the cursor with mark/reset.
type scanner struct {
	src string
	pos int
}

func (s *scanner) mark() int     { return s.pos }
func (s *scanner) reset(pos int) { s.pos = pos }
func (s *scanner) eof() bool     { return s.pos >= len(s.src) }

// spaces consumes a run of white space and reports whether it held
// at least min characters.
func (s *scanner) spaces(min int) bool {
	start, n := s.pos, 0
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		s.pos += size
		n++
	}
	if n < min {
		s.pos = start
		return false
	}
	return true
}

// literal consumes lit exactly.
func (s *scanner) literal(lit string) bool {
	if len(s.src)-s.pos < len(lit) || s.src[s.pos:s.pos+len(lit)] != lit {
		return false
	}
	s.pos += len(lit)
	return true
}

// run consumes the longest non-empty run of bytes accepted by ok.
func (s *scanner) run(ok func(byte) bool) (string, bool) {
	start := s.pos
	for s.pos < len(s.src) && ok(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return "", false
	}
	return s.src[start:s.pos], true
}

// digits consumes one or more decimal digits.
func (s *scanner) digits() (string, bool) { return s.run(isDigit) }

// number consumes one or more digits and dots. The token may still
// be malformed, such as "1.2.3"; callers convert it and report that.
func (s *scanner) number() (string, bool) { return s.run(isNumberByte) }

// fixedDigits consumes exactly n digits.
func (s *scanner) fixedDigits(n int) bool {
	if len(s.src)-s.pos < n {
		return false
	}
	for i := 0; i < n; i++ {
		if !isDigit(s.src[s.pos+i]) {
			return false
		}
	}
	s.pos += n
	return true
}

func isDigit(b byte) bool      { return '0' <= b && b <= '9' }
func isNumberByte(b byte) bool { return isDigit(b) || b == '.' }
