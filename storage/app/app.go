// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package app implements the record storage server. Combine an App
// with a database, and optionally an archive for raw uploads, to get
// an HTTP server.
package app

import (
	"net/http"
	"time"

	"github.com/streamlab/kperf/storage/db"
)

// App manages the storage server logic. Construct an App instance
// using a literal with a DB and call RegisterOnMux to connect it with
// an HTTP server.
type App struct {
	DB *db.DB

	// Archive, if set, is a directory or gs://bucket/prefix URL under
	// which every uploaded file is saved as
	// <uploadid>/<filenum>-<name>.
	Archive string

	// Now returns the parse time stamped on records extracted from
	// uploaded logs. If nil, time.Now is used.
	Now func() time.Time
}

// RegisterOnMux registers the app's URLs on mux.
func (a *App) RegisterOnMux(mux *http.ServeMux) {
	mux.HandleFunc("/upload", a.upload)
	mux.HandleFunc("/search", a.search)
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
