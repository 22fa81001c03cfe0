// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	storeapp "github.com/streamlab/kperf/storage/app"
	"github.com/streamlab/kperf/storage/db"
)

func (a *app) serveCmd() *cobra.Command {
	var addr, archive string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the record store over HTTP",
		Long: `Serve accepts benchmark logs and structured files on POST /upload
and answers GET /search?q=key:value queries with JSON records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, addr, archive)
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.flags.db, "db", "", "store records in database `driver:dsn`")
	f.StringVar(&addr, "addr", ":8080", "serve HTTP on `address`")
	f.StringVar(&archive, "archive", "", "save uploaded files under `dir` or gs://bucket/prefix")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, addr, archive string) error {
	if err := a.apply(cmd, addr); err != nil {
		return err
	}
	if !a.cfg.DB.Enabled() {
		return errors.New("no database given; use --db driver:dsn")
	}
	d, err := db.OpenSQL(a.cfg.DB.Driver, a.cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer d.Close()

	mux := http.NewServeMux()
	(&storeapp.App{DB: d, Archive: archive, Now: a.now}).RegisterOnMux(mux)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("driver", a.cfg.DB.Driver).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
