// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffmt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b_producer_acks_all.log": finalSummary,
		"a_consumer.log":          consumerOutput,
		"c_mystery.log":           "nothing",
		"d_producer_broken.log":   "no summary here",
		"notes.txt":               finalSummary,
	})
	f := &Files{Dir: dir, Now: func() time.Time { return testNow }}
	assert.Equal(t, 4, f.Len())

	var got []string
	for f.Scan() {
		switch it := f.Result().(type) {
		case *Record:
			got = append(got, "record:"+string(it.TestType))
		case *SkipError:
			got = append(got, "skip")
		case *SyntaxError:
			got = append(got, "syntax")
		default:
			t.Fatalf("unexpected item %T", it)
		}
	}
	require.NoError(t, f.Err())
	assert.Equal(t, []string{"record:consumer", "record:producer", "skip", "syntax"}, got)
}

func TestFilesMissingDir(t *testing.T) {
	f := &Files{Dir: filepath.Join(t.TempDir(), "missing")}
	assert.False(t, f.Scan())
	assert.Error(t, f.Err())
}

func TestParseDir(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"producer_1.log": finalSummary,
		"producer_2.out": finalSummary,
		"producer_3.log": "garbage",
	})
	recs, problems, err := ParseDir(dir, "")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "producer_1.log", recs[0].FileName)
	require.Len(t, problems, 1)

	recs, _, err = ParseDir(dir, "*.out")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "producer_2.out", recs[0].FileName)
}

func TestParseDirEmpty(t *testing.T) {
	recs, problems, err := ParseDir(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Empty(t, problems)
}
