// Package store persists the application's domain entities (users,
// collections, cards, dashboards, revisions) in a SQLite database and exposes
// them as record.Records so results feed directly into the hydration engine.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/errs"

	record "github.com/hanpama/hydrograph/internal/record"
)

var (
	// Error is the class wrapping all store failures.
	Error = errs.Class("store")
	// ErrNotFound is returned when a single-entity lookup matches nothing.
	ErrNotFound = errs.Class("not found")
)

// DB is the application database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema. Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, Error.Wrap(err)
	}
	s := &DB{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *DB) Close() error { return Error.Wrap(s.db.Close()) }

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	email       TEXT NOT NULL UNIQUE,
	first_name  TEXT NOT NULL,
	last_name   TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS collections (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL,
	slug      TEXT NOT NULL UNIQUE,
	color     TEXT NOT NULL DEFAULT '#509EE3',
	owner_id  INTEGER REFERENCES users(id),
	archived  INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS cards (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT NOT NULL,
	description    TEXT,
	display        TEXT NOT NULL DEFAULT 'table',
	dataset_query  TEXT NOT NULL,
	database       TEXT NOT NULL,
	creator_id     INTEGER NOT NULL REFERENCES users(id),
	collection_id  INTEGER REFERENCES collections(id),
	archived       INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS dashboards (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	description  TEXT,
	creator_id   INTEGER NOT NULL REFERENCES users(id),
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS dashboard_cards (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	dashboard_id  INTEGER NOT NULL REFERENCES dashboards(id) ON DELETE CASCADE,
	card_id       INTEGER NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
	row           INTEGER NOT NULL DEFAULT 0,
	col           INTEGER NOT NULL DEFAULT 0,
	size_x        INTEGER NOT NULL DEFAULT 4,
	size_y        INTEGER NOT NULL DEFAULT 4
);
CREATE TABLE IF NOT EXISTS revisions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	model        TEXT NOT NULL,
	model_id     INTEGER NOT NULL,
	user_id      INTEGER,
	object       TEXT NOT NULL,
	diff         TEXT,
	is_creation  INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_revisions_model ON revisions(model, model_id);
`

func (s *DB) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return Error.Wrap(err)
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// scanRecords drains rows into column-keyed records. TEXT columns scan as
// []byte under go-sqlite3 and are normalized to string.
func scanRecords(rows *sql.Rows) ([]record.Record, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	var out []record.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, Error.Wrap(err)
		}
		rec := make(record.Record, len(cols))
		for i, c := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[c] = v
		}
		out = append(out, rec)
	}
	return out, Error.Wrap(rows.Err())
}

// queryRecords runs query and returns all rows as records.
func (s *DB) queryRecords(ctx context.Context, query string, args ...any) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return scanRecords(rows)
}

// queryOne runs query and returns exactly one record or ErrNotFound.
func (s *DB) queryOne(ctx context.Context, query string, args ...any) (record.Record, error) {
	recs, err := s.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound.New("no matching row")
	}
	return recs[0], nil
}

// queryByIDs runs a bulk IN (...) lookup and maps the result records by
// their value at idCol. The signature matches hydrate.BatchFetchFunc.
func (s *DB) queryByIDs(ctx context.Context, table, idCol string, ids []any) (map[any]record.Record, error) {
	if len(ids) == 0 {
		return map[any]record.Record{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	recs, err := s.queryRecords(ctx,
		"SELECT * FROM "+table+" WHERE "+idCol+" IN ("+placeholders+")", ids...)
	if err != nil {
		return nil, err
	}
	out := make(map[any]record.Record, len(recs))
	for _, rec := range recs {
		out[rec[idCol]] = rec
	}
	return out, nil
}
