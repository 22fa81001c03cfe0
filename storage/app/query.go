// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/streamlab/kperf/perffmt"
)

// search is the handler for the /search endpoint. It writes the
// records matching the q parameter as a JSON array.
func (a *App) search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	q := r.Form.Get("q")
	if q == "" {
		http.Error(w, "missing q parameter", 400)
		return
	}

	query := a.DB.Query(q)
	defer query.Close()

	var recs []*perffmt.Record
	for query.Next() {
		recs = append(recs, query.Record())
	}
	if err := query.Err(); err != nil {
		log.Error().Err(err).Str("q", q).Msg("search failed")
		http.Error(w, err.Error(), 500)
		return
	}
	log.Debug().Str("q", q).Int("records", len(recs)).Msg("search")

	w.Header().Set("Content-Type", "application/json")
	if err := perffmt.WriteJSON(w, recs); err != nil {
		log.Error().Err(err).Msg("writing search response")
	}
}
