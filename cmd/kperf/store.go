// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/streamlab/kperf/storage/db"
)

func (a *app) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store [parsed-dir]",
		Short: "Upload structured records into a database",
		Long: `Store reads the structured records of parsed-dir and inserts them
into the database given with --db as a single upload. Stored records
can be read back by the other commands with --db and --query.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runStore,
	}
	f := cmd.Flags()
	f.StringVar(&a.flags.db, "db", "", "store records in database `driver:dsn`")
	f.StringVar(&a.flags.replace, "replace", "", "replace the records of upload `id`")
	a.recordFlags(cmd, false)
	return cmd
}

func (a *app) runStore(cmd *cobra.Command, args []string) (err error) {
	in := arg(args, 0, a.cfg.Input, defaultParsedDir)
	if err := a.apply(cmd, in); err != nil {
		return err
	}
	if !a.cfg.DB.Enabled() {
		return errors.New("no database given; use --db driver:dsn")
	}
	recs, err := a.loadRecords(in, false)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		log.Warn().Msg("no results loaded; nothing to store")
		return nil
	}

	d, err := db.OpenSQL(a.cfg.DB.Driver, a.cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer d.Close()

	var u *db.Upload
	if a.flags.replace != "" {
		u, err = d.ReplaceUpload(a.flags.replace)
	} else {
		u, err = d.NewUpload(cmd.Context())
	}
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			u.Abort()
		}
	}()
	for _, rec := range recs {
		if err := u.InsertRecord(rec); err != nil {
			return fmt.Errorf("%s: %w", rec.FileName, err)
		}
	}
	if err := u.Commit(); err != nil {
		return err
	}
	log.Info().Str("upload", u.ID).Int("records", len(recs)).Msg("stored records")
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d records in upload %s\n", len(recs), u.ID)
	return nil
}
