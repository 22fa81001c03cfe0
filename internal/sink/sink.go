// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sink opens output destinations: standard output, local
// files, and Cloud Storage objects.
package sink

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Stdout is the destination name of standard output.
const Stdout = "-"

const gcsScheme = "gs://"

// Stdio is where Stdout destinations write. Tests may replace it.
var Stdio io.Writer = os.Stdout

// ParseGCS splits a gs://bucket/object URL. ok is false if dest is
// not such a URL or lacks a bucket or an object.
func ParseGCS(dest string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(dest, gcsScheme)
	if !found {
		return "", "", false
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", false
	}
	return bucket, object, true
}

// IsGCS reports whether dest names a Cloud Storage location.
func IsGCS(dest string) bool {
	return strings.HasPrefix(dest, gcsScheme)
}

// Join joins a directory destination and a file name. It works for
// both local directories and gs:// prefixes.
func Join(dir, name string) string {
	if IsGCS(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}

// Create opens dest for writing. dest is Stdout, a gs://bucket/object
// URL, or a local path whose parent directories are created as
// needed. opts configure the Cloud Storage client.
//
// Data written to a Cloud Storage object is only committed by a
// successful Close.
func Create(ctx context.Context, dest string, opts ...option.ClientOption) (io.WriteCloser, error) {
	switch {
	case dest == Stdout:
		return nopCloser{Stdio}, nil
	case IsGCS(dest):
		bucket, object, ok := ParseGCS(dest)
		if !ok {
			return nil, fmt.Errorf("malformed Cloud Storage URL %q", dest)
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("storage client: %w", err)
		}
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType(object)
		return &gcsWriter{Writer: w, client: client}, nil
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(dest)
}

// WriteFile creates dest, calls write with it, and closes it. The
// first error wins.
func WriteFile(ctx context.Context, dest string, write func(w io.Writer) error, opts ...option.ClientOption) (err error) {
	w, err := Create(ctx, dest, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%s: %w", dest, cerr)
		}
	}()
	return write(w)
}

func contentType(object string) string {
	if t := mime.TypeByExtension(path.Ext(object)); t != "" {
		return t
	}
	return "application/octet-stream"
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// gcsWriter closes the storage client along with the object writer.
type gcsWriter struct {
	*storage.Writer
	client *storage.Client
}

func (w *gcsWriter) Close() error {
	err := w.Writer.Close()
	if cerr := w.client.Close(); err == nil {
		err = cerr
	}
	return err
}
