// Package query executes card dataset queries against the configured
// databases, with result caching keyed by query content.
package query

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/errs"

	eventbus "github.com/hanpama/hydrograph/internal/eventbus"
	events "github.com/hanpama/hydrograph/internal/events"
)

var (
	// Error is the class wrapping all query failures.
	Error = errs.Class("query")
	// ErrUnknownDatabase is returned for database names not in the config.
	ErrUnknownDatabase = errs.Class("unknown database")
	// ErrRejectedQuery is returned for statements that are not read-only.
	ErrRejectedQuery = errs.Class("rejected query")
)

// Result holds one dataset query's output.
type Result struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
	Cached   bool     `json:"cached"`
}

// Executor runs dataset queries against named databases. Only single
// read-only statements are accepted; cards never mutate the data they chart.
type Executor struct {
	dbs   map[string]*sql.DB
	cache Cache
	ttl   time.Duration
}

// NewExecutor opens the named databases (name -> SQLite path/DSN) and wires
// the result cache. A nil cache disables caching.
func NewExecutor(databases map[string]string, cache Cache, ttl time.Duration) (*Executor, error) {
	dbs := make(map[string]*sql.DB, len(databases))
	for name, dsn := range databases {
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			for _, opened := range dbs {
				_ = opened.Close()
			}
			return nil, Error.Wrap(err)
		}
		dbs[name] = db
	}
	return &Executor{dbs: dbs, cache: cache, ttl: ttl}, nil
}

// Close closes every database connection.
func (e *Executor) Close() error {
	var group errs.Group
	for _, db := range e.dbs {
		group.Add(db.Close())
	}
	return Error.Wrap(group.Err())
}

// Run executes a card's dataset query against the named database. Results
// are served from cache when a fresh entry exists for the same (database,
// query) content hash.
func (e *Executor) Run(ctx context.Context, cardID int64, database, datasetQuery string) (res *Result, err error) {
	db, ok := e.dbs[database]
	if !ok {
		return nil, ErrUnknownDatabase.New("%q", database)
	}
	if err := validateReadOnly(datasetQuery); err != nil {
		return nil, err
	}

	hash := queryHash(database, datasetQuery)
	start := time.Now()
	eventbus.Publish(ctx, events.QueryStart{CardID: cardID, Database: database, Hash: hash})
	defer func() {
		fin := events.QueryFinish{CardID: cardID, Database: database, Hash: hash, Err: err, Duration: time.Since(start)}
		if res != nil {
			fin.Cached = res.Cached
			fin.Rows = res.RowCount
		}
		eventbus.Publish(ctx, fin)
	}()

	if e.cache != nil {
		if raw, hit, cerr := e.cache.Get(ctx, hash); cerr == nil && hit {
			cached := &Result{}
			if jerr := json.Unmarshal(raw, cached); jerr == nil {
				cached.Cached = true
				return cached, nil
			}
			// Unreadable entry: fall through and recompute.
		}
	}

	res, err = runQuery(ctx, db, datasetQuery)
	if err != nil {
		return nil, err
	}

	if e.cache != nil && e.ttl > 0 {
		if raw, jerr := json.Marshal(res); jerr == nil {
			_ = e.cache.Set(ctx, hash, raw, e.ttl)
		}
	}
	return res, nil
}

func runQuery(ctx context.Context, db *sql.DB, datasetQuery string) (*Result, error) {
	rows, err := db.QueryContext(ctx, datasetQuery)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	res := &Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, Error.Wrap(err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, Error.Wrap(err)
	}
	res.RowCount = len(res.Rows)
	return res, nil
}

// validateReadOnly accepts a single SELECT/WITH statement. This is a guard
// against obviously destructive card queries, not a SQL firewall; the
// configured databases should additionally be opened read-only in
// deployments that need hard guarantees.
func validateReadOnly(q string) error {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return ErrRejectedQuery.New("empty query")
	}
	if i := strings.Index(trimmed, ";"); i >= 0 && strings.TrimSpace(trimmed[i+1:]) != "" {
		return ErrRejectedQuery.New("multiple statements")
	}
	head := strings.ToUpper(trimmed)
	if !strings.HasPrefix(head, "SELECT") && !strings.HasPrefix(head, "WITH") {
		return ErrRejectedQuery.New("only SELECT queries are allowed")
	}
	return nil
}

func queryHash(database, q string) string {
	sum := sha256.Sum256([]byte(database + "\x00" + q))
	return "query:" + hex.EncodeToString(sum[:])
}
