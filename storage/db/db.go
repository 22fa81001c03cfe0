// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db stores performance records in a SQL database.
//
// Records are written in uploads. Every record is stored as its JSON
// form together with one label per configuration key, plus the
// labels uploadid, test_type, scenario and file, so that records can
// be found again by label queries.
package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/streamlab/kperf/perffmt"
)

// DB is a high-level interface to a record database. It's safe for
// concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	lastUpload   *sql.Stmt
	insertUpload *sql.Stmt
	insertRecord *sql.Stmt
	clearUpload  []*sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to configure its connections.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Uploads (
	UploadID VARCHAR(20) PRIMARY KEY,
	Day VARCHAR(8) NOT NULL,
	Seq BIGINT UNSIGNED NOT NULL
{{if not .sqlite3}}
	, Index (Day, Seq)
{{end}}
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS UploadsDaySeq ON Uploads(Day, Seq);
{{end}}
CREATE TABLE IF NOT EXISTS Records (
	UploadID VARCHAR(20) NOT NULL,
	RecordID BIGINT UNSIGNED NOT NULL,
	TestType VARCHAR(16) NOT NULL,
	Scenario VARCHAR(255) NOT NULL,
	Content BLOB NOT NULL,
	PRIMARY KEY (UploadID, RecordID),
	FOREIGN KEY (UploadID) REFERENCES Uploads(UploadID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS RecordLabels (
	UploadID VARCHAR(20) NOT NULL,
	RecordID BIGINT UNSIGNED NOT NULL,
	Name VARCHAR(255) NOT NULL,
	Value VARCHAR(8192) NOT NULL,
{{if not .sqlite3}}
	Index (Name(100), Value(100)),
{{end}}
	PRIMARY KEY (UploadID, RecordID, Name),
	FOREIGN KEY (UploadID, RecordID) REFERENCES Records(UploadID, RecordID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS RecordLabelsNameValue ON RecordLabels(Name, Value);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	prep := func(q string) *sql.Stmt {
		if err != nil {
			return nil
		}
		var s *sql.Stmt
		s, err = db.sql.Prepare(q)
		return s
	}
	db.lastUpload = prep("SELECT MAX(Seq) FROM Uploads WHERE Day = ?")
	db.insertUpload = prep("INSERT INTO Uploads(UploadID, Day, Seq) VALUES (?, ?, ?)")
	db.insertRecord = prep("INSERT INTO Records(UploadID, RecordID, TestType, Scenario, Content) VALUES (?, ?, ?, ?, ?)")
	db.clearUpload = []*sql.Stmt{
		prep("DELETE FROM RecordLabels WHERE UploadID = ?"),
		prep("DELETE FROM Records WHERE UploadID = ?"),
	}
	return err
}

// now is a hook for testing
var now = time.Now

// An Upload is a collection of records that share an upload ID.
type Upload struct {
	// ID is the value of the "uploadid" label that is associated
	// with every record in this upload.
	ID string

	// recordid is the index of the next record to insert.
	recordid int64
	// db is the underlying database that this upload is going to.
	db *DB
	// tx is the transaction used by the upload.
	tx *sql.Tx
}

// NewUpload returns an upload for storing new records. All records
// written to the Upload will have the same upload ID, of the form
// YYYYMMDD.N where N counts the uploads of the day from 1.
func (db *DB) NewUpload(ctx context.Context) (*Upload, error) {
	day := now().UTC().Format("20060102")

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	var last sql.NullInt64
	if err := tx.StmtContext(ctx, db.lastUpload).QueryRowContext(ctx, day).Scan(&last); err != nil {
		tx.Rollback()
		return nil, err
	}
	seq := last.Int64 + 1
	id := fmt.Sprintf("%s.%d", day, seq)
	if _, err := tx.StmtContext(ctx, db.insertUpload).ExecContext(ctx, id, day, seq); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &Upload{ID: id, db: db, tx: tx}, nil
}

// ReplaceUpload returns an upload that replaces every record of the
// upload with the given ID. The old records are only removed once the
// upload is committed. If no such upload exists, one is created.
func (db *DB) ReplaceUpload(id string) (*Upload, error) {
	tx, err := db.sql.Begin()
	if err != nil {
		return nil, err
	}
	for _, s := range db.clearUpload {
		if _, err := tx.Stmt(s).Exec(id); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	var n int
	if err := tx.QueryRow("SELECT COUNT(*) FROM Uploads WHERE UploadID = ?", id).Scan(&n); err != nil {
		tx.Rollback()
		return nil, err
	}
	if n == 0 {
		if _, err := tx.Stmt(db.insertUpload).Exec(id, "", 0); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	return &Upload{ID: id, db: db, tx: tx}, nil
}

// InsertRecord inserts a single record in an existing upload. The
// record's uploadid label is u.ID.
func (u *Upload) InsertRecord(r *perffmt.Record) error {
	content, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := u.tx.Stmt(u.db.insertRecord).Exec(u.ID, u.recordid, string(r.TestType), r.Scenario, content); err != nil {
		return err
	}

	labels := recordLabels(r)
	labels["uploadid"] = u.ID
	var args []interface{}
	for _, k := range sortedKeys(labels) {
		args = append(args, u.ID, u.recordid, k, labels[k])
	}
	query := "INSERT INTO RecordLabels VALUES " + strings.Repeat("(?, ?, ?, ?), ", len(args)/4)
	query = strings.TrimSuffix(query, ", ")
	if _, err := u.tx.Exec(query, args...); err != nil {
		return err
	}
	u.recordid++
	return nil
}

// recordLabels returns the searchable labels of r.
func recordLabels(r *perffmt.Record) map[string]string {
	labels := map[string]string{
		"test_type": string(r.TestType),
		"scenario":  r.Scenario,
	}
	if r.FileName != "" {
		labels["file"] = r.FileName
	}
	for _, e := range r.Config.Entries() {
		if e.Value.IsNull() {
			continue
		}
		if _, ok := labels[e.Key]; !ok {
			labels[e.Key] = e.Value.String()
		}
	}
	return labels
}

// Commit finishes processing the upload.
func (u *Upload) Commit() error {
	return u.tx.Commit()
}

// Abort cleans up resources associated with the upload.
// It does not attempt to clean up partial database state.
func (u *Upload) Abort() error {
	return u.tx.Rollback()
}

// parseQuery parses a query into a list of label matches. Each word
// must be of the form key:value.
func parseQuery(q string) ([][2]string, error) {
	var terms [][2]string
	for _, word := range splitQueryWords(q) {
		colon := strings.IndexByte(word, ':')
		if colon < 1 {
			return nil, fmt.Errorf("query part %q is missing key", word)
		}
		terms = append(terms, [2]string{word[:colon], word[colon+1:]})
	}
	return terms, nil
}

// splitQueryWords splits q into words using shell syntax (whitespace
// can be escaped with double quotes or with a backslash).
func splitQueryWords(q string) []string {
	var words []string
	word := make([]byte, len(q))
	w := 0
	quoting := false
	for r := 0; r < len(q); r++ {
		switch c := q[r]; {
		case c == '"' && quoting:
			quoting = false
		case quoting:
			if c == '\\' {
				r++
			}
			if r < len(q) {
				word[w] = q[r]
				w++
			}
		case c == '"':
			quoting = true
		case c == ' ', c == '\t':
			if w > 0 {
				words = append(words, string(word[:w]))
			}
			w = 0
		case c == '\\':
			r++
			fallthrough
		default:
			if r < len(q) {
				word[w] = q[r]
				w++
			}
		}
	}
	if w > 0 {
		words = append(words, string(word[:w]))
	}
	return words
}

// Query searches for records matching every key:value word of q. An
// empty query matches every record. Records are returned in upload
// order.
func (db *DB) Query(q string) *Query {
	ret := &Query{}
	terms, err := parseQuery(q)
	if err != nil {
		ret.err = err
		return ret
	}

	var query strings.Builder
	var args []interface{}
	query.WriteString("SELECT r.Content FROM Records r JOIN Uploads u ON u.UploadID = r.UploadID")
	for i, t := range terms {
		if i == 0 {
			query.WriteString(" WHERE ")
		} else {
			query.WriteString(" AND ")
		}
		query.WriteString("EXISTS (SELECT 1 FROM RecordLabels l WHERE l.UploadID = r.UploadID AND l.RecordID = r.RecordID AND l.Name = ? AND l.Value = ?)")
		args = append(args, t[0], t[1])
	}
	query.WriteString(" ORDER BY u.Day, u.Seq, r.UploadID, r.RecordID")

	ret.rows, ret.err = db.sql.Query(query.String(), args...)
	return ret
}

// Query is the result of a query.
// Use Next to advance through the records, making sure to call Close when done:
//
//	q := db.Query("key:value")
//	defer q.Close()
//	for q.Next() {
//	  rec := q.Record()
//	  ...
//	}
//	err = q.Err() // get any error encountered during iteration
//	...
type Query struct {
	rows *sql.Rows
	rec  *perffmt.Record
	err  error
}

// Next prepares the next record for reading. It returns false
// when there are no more records, either at the end of the results
// or because of an error.
func (q *Query) Next() bool {
	if q.err != nil || q.rows == nil {
		return false
	}
	if !q.rows.Next() {
		q.err = q.rows.Err()
		return false
	}
	var content []byte
	if q.err = q.rows.Scan(&content); q.err != nil {
		return false
	}
	rec := new(perffmt.Record)
	if q.err = json.Unmarshal(content, rec); q.err != nil {
		return false
	}
	q.rec = rec
	return true
}

// Record returns the most recent record generated by a call to Next.
func (q *Query) Record() *perffmt.Record {
	return q.rec
}

// Err returns the error state of the query.
func (q *Query) Err() error {
	if q.err == sql.ErrNoRows {
		return nil
	}
	return q.err
}

// Close frees resources associated with the query.
func (q *Query) Close() error {
	if q.rows != nil {
		return q.rows.Close()
	}
	return q.Err()
}

// Records runs q and collects every matching record.
func (db *DB) Records(q string) ([]*perffmt.Record, error) {
	query := db.Query(q)
	var recs []*perffmt.Record
	for query.Next() {
		recs = append(recs, query.Record())
	}
	err := query.Err()
	if cerr := query.Close(); err == nil {
		err = cerr
	}
	return recs, err
}

// CountUploads returns the number of uploads in the database.
func (db *DB) CountUploads() (int, error) {
	var uploads int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Uploads").Scan(&uploads)
	return uploads, err
}

// ErrNoUpload is returned by DeleteUpload for an unknown upload ID.
var ErrNoUpload = errors.New("upload not found")

// DeleteUpload deletes the upload with the given ID and all of its
// records.
func (db *DB) DeleteUpload(id string) (err error) {
	tx, err := db.sql.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	for _, s := range db.clearUpload {
		if _, err := tx.Stmt(s).Exec(id); err != nil {
			return err
		}
	}
	res, err := tx.Exec("DELETE FROM Uploads WHERE UploadID = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoUpload
	}
	return nil
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, s := range append([]*sql.Stmt{db.lastUpload, db.insertUpload, db.insertRecord}, db.clearUpload...) {
		if err := s.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
