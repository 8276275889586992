// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/places-scan/pkg/types"
)

// Database drivers accepted by TableSink. The names double as goqu dialects.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// insertBatch bounds the rows per INSERT so the bound parameter count stays
// under SQLite's variable limit.
const insertBatch = 50

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableSink replaces a relational table with the Record set. The drop,
// create and inserts run in one transaction, so readers see either the
// previous run or this one.
type TableSink struct {
	Driver string
	DSN    string
	Table  string

	// ScanID is stored in every row so rows can be traced to their run.
	ScanID string
}

func (s TableSink) Name() string {
	if s.Driver == DriverPostgres {
		return types.SinkPostgres
	}
	return types.SinkSQLite
}

func (s TableSink) Destination() string {
	if s.Driver == DriverPostgres {
		return "postgres table " + s.Table
	}
	return s.DSN + " table " + s.Table
}

func (s TableSink) Persist(ctx context.Context, records []types.Record) (err error) {
	if !identRe.MatchString(s.Table) {
		return fmt.Errorf("invalid table name %q", s.Table)
	}
	if s.Driver != DriverSQLite && s.Driver != DriverPostgres {
		return fmt.Errorf("unsupported driver %q", s.Driver)
	}
	if s.Driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(s.DSN), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(s.Driver, s.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, stmt := range s.schema() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("replacing table %s: %w", s.Table, err)
		}
	}

	dialect := goqu.Dialect(s.Driver)
	for start := 0; start < len(records); start += insertBatch {
		end := min(start+insertBatch, len(records))
		rows := make([]any, 0, end-start)
		for _, r := range records[start:end] {
			rows = append(rows, s.row(r))
		}
		query, args, err := dialect.Insert(s.Table).Prepared(true).Rows(rows...).ToSQL()
		if err != nil {
			return fmt.Errorf("building insert query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting rows %d-%d: %w", start+1, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func (s TableSink) schema() []string {
	return []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %q`, s.Table),
		fmt.Sprintf(`CREATE TABLE %q (
			place_id TEXT PRIMARY KEY,
			name TEXT,
			address TEXT,
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION,
			types TEXT,
			rating DOUBLE PRECISION,
			user_ratings_total INTEGER,
			business_status TEXT,
			price_level INTEGER,
			formatted_address TEXT,
			phone TEXT,
			website TEXT,
			hours TEXT,
			is_open_now BOOLEAN,
			description TEXT,
			scan_id TEXT
		)`, s.Table),
	}
}

func (s TableSink) row(r types.Record) goqu.Record {
	rec := make(goqu.Record, len(Columns)+1)
	for i, v := range values(r) {
		rec[Columns[i]] = v
	}
	rec["scan_id"] = s.ScanID
	return rec
}
