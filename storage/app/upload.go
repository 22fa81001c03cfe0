// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/streamlab/kperf/internal/sink"
	"github.com/streamlab/kperf/perffmt"
	"github.com/streamlab/kperf/storage/db"
)

// maxFileSize bounds a single uploaded file.
const maxFileSize = 32 << 20

// upload is the handler for the /upload endpoint. It processes the
// files in a multipart/form-data POST request. Each "file" part is
// either a benchmark log, from which one record is extracted, or a
// structured .json file of records.
func (a *App) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "/upload must be called as a POST request", http.StatusMethodNotAllowed)
		return
	}

	// We use r.MultipartReader instead of r.ParseForm to avoid
	// storing uploaded data in memory.
	mr, err := r.MultipartReader()
	if err != nil {
		log.Warn().Err(err).Msg("bad upload")
		http.Error(w, err.Error(), 400)
		return
	}

	result, err := a.processUpload(ctx, mr)
	if err != nil {
		log.Error().Err(err).Msg("upload failed")
		http.Error(w, err.Error(), 500)
		return
	}
	log.Info().Str("upload", result.UploadID).Int("records", result.Records).Int("skipped", len(result.Skipped)).Msg("upload stored")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Error().Err(err).Msg("writing upload response")
	}
}

// uploadStatus is the response to an /upload POST served as JSON.
type uploadStatus struct {
	// UploadID is the upload ID assigned to the upload.
	UploadID string `json:"uploadid"`
	// FileIDs is the list of file IDs assigned to the files in the upload.
	FileIDs []string `json:"fileids"`
	// Records is the number of records stored.
	Records int `json:"records"`
	// Skipped describes the files that yielded no record.
	Skipped []string `json:"skipped,omitempty"`
}

// processUpload takes one or more files from a multipart.Reader,
// archives them if configured, and stores their records in a single
// upload. Nothing is stored unless every file can be read.
func (a *App) processUpload(ctx context.Context, mr *multipart.Reader) (status *uploadStatus, err error) {
	var u *db.Upload
	defer func() {
		if err != nil && u != nil {
			u.Abort()
		}
	}()

	status = &uploadStatus{FileIDs: []string{}}
	for i := 0; ; i++ {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		name := p.FormName()
		if name != "file" {
			return nil, fmt.Errorf("unexpected field %q", name)
		}

		if u == nil {
			u, err = a.DB.NewUpload(ctx)
			if err != nil {
				return nil, err
			}
			status.UploadID = u.ID
		}

		fileName := path.Base(p.FileName())
		content, err := io.ReadAll(io.LimitReader(p, maxFileSize+1))
		if err != nil {
			return nil, err
		}
		if len(content) > maxFileSize {
			return nil, fmt.Errorf("%s: file exceeds %d bytes", fileName, maxFileSize)
		}
		fileID := fmt.Sprintf("%s/%d", u.ID, i)
		if err := a.archive(ctx, fmt.Sprintf("%s-%s", fileID, fileName), content); err != nil {
			return nil, err
		}

		status.FileIDs = append(status.FileIDs, fileID)
		recs, err := a.records(fileName, content)
		if err != nil {
			status.Skipped = append(status.Skipped, err.Error())
			continue
		}
		for _, rec := range recs {
			if err := u.InsertRecord(rec); err != nil {
				return nil, err
			}
		}
		status.Records += len(recs)
	}

	if u == nil {
		return nil, errors.New("no files uploaded")
	}
	if err := u.Commit(); err != nil {
		return nil, err
	}
	return status, nil
}

// records returns the records in an uploaded file.
func (a *App) records(name string, content []byte) ([]*perffmt.Record, error) {
	if strings.HasSuffix(name, ".json") {
		return perffmt.ReadJSON(bytes.NewReader(content), name)
	}
	rec, err := perffmt.Extract(name, content, a.now())
	if err != nil {
		return nil, err
	}
	return []*perffmt.Record{rec}, nil
}

// archive saves an uploaded file under a.Archive.
func (a *App) archive(ctx context.Context, name string, content []byte) error {
	if a.Archive == "" {
		return nil
	}
	return sink.WriteFile(ctx, sink.Join(a.Archive, name), func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
}
