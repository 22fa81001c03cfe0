// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens throwaway record databases for tests and fills
// them with benchmark records.
package dbtest

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"flag"
	"fmt"
	"testing"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	"github.com/streamlab/kperf/perffmt"
	"github.com/streamlab/kperf/storage/db"
	_ "github.com/streamlab/kperf/storage/db/sqlite3"
)

var (
	cloud    = flag.Bool("cloud", false, "run against a fresh Cloud SQL database instead of in-memory SQLite")
	cloudsql = flag.String("cloudsql", "streamlab:us-central1:kperf", "Cloud SQL `instance` used with -cloud")
)

// cloudDSN creates an empty MySQL database on the Cloud SQL instance
// and drops it when the test ends.
func cloudDSN(t testing.TB) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		t.Fatal(err)
	}
	name := "kperf_records_" + base64.RawURLEncoding.EncodeToString(buf)
	server := fmt.Sprintf("root:@cloudsql(%s)/", *cloudsql)

	admin, err := sql.Open("mysql", server)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Exec("CREATE DATABASE `" + name + "`"); err != nil {
		admin.Close()
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec("DROP DATABASE `" + name + "`"); err != nil {
			t.Error(err)
		}
		admin.Close()
	})
	t.Logf("record database %q", name)
	return server + name
}

// NewDB returns an empty record database that is closed when the test
// ends. It lives in memory unless -cloud is set.
func NewDB(t testing.TB) *db.DB {
	t.Helper()
	driver, dsn := "sqlite3", ":memory:"
	if *cloud {
		driver, dsn = "mysql", cloudDSN(t)
	}
	d, err := db.OpenSQL(driver, dsn)
	if err != nil {
		t.Fatalf("open %s record database: %v", driver, err)
	}
	t.Cleanup(func() { d.Close() })

	if n, err := d.CountUploads(); err != nil {
		t.Fatal(err)
	} else if n != 0 {
		t.Fatalf("new database holds %d upload(s)", n)
	}
	return d
}

// Record returns a record of type tt from scenario whose configuration
// is the key/value pairs kv. Values may be int, float64 or string.
// The record carries the headline throughput of its test type.
func Record(tt perffmt.TestType, scenario string, kv ...any) *perffmt.Record {
	cfg := new(perffmt.Config)
	for i := 0; i+1 < len(kv); i += 2 {
		key := kv[i].(string)
		switch v := kv[i+1].(type) {
		case int:
			cfg.Set(key, perffmt.IntValue(int64(v)))
		case float64:
			cfg.Set(key, perffmt.FloatValue(v))
		default:
			cfg.Set(key, perffmt.StringValue(fmt.Sprint(v)))
		}
	}
	metric, value := perffmt.ThroughputMB, 28.59
	if tt == perffmt.Consumer {
		metric, value = perffmt.ThroughputMBSec, 95.37
	}
	return &perffmt.Record{
		TestType: tt,
		Scenario: scenario,
		Config:   cfg,
		Metrics:  perffmt.Metrics{{Name: metric, Value: perffmt.FloatValue(value)}},
		FileName: fmt.Sprintf("%s_%s.log", tt, scenario),
	}
}

// Seed stores recs as one new upload of d and returns the upload ID.
func Seed(t testing.TB, d *db.DB, recs ...*perffmt.Record) string {
	t.Helper()
	u, err := d.NewUpload(context.Background())
	if err != nil {
		t.Fatalf("NewUpload: %v", err)
	}
	for _, r := range recs {
		if err := u.InsertRecord(r); err != nil {
			u.Abort()
			t.Fatalf("InsertRecord %s: %v", r.FileName, err)
		}
	}
	if err := u.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return u.ID
}
