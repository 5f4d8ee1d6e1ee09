// Package flowdb stores flow-connectivity tables in SQLite and implements
// the nhdr.FlowLoader contract. Each row of the plusflow table is one
// (fromcomid, tocomid) edge keyed by watershed management unit.
package flowdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gudaleon/nhdR"
)

// ErrMissingColumns is returned when a source query exposes no fromcomid
// or tocomid column under any casing.
var ErrMissingColumns = errors.New("flowdb: query must return fromcomid and tocomid columns")

const schema = `
CREATE TABLE IF NOT EXISTS plusflow (
	unit      TEXT    NOT NULL,
	fromcomid INTEGER NOT NULL,
	tocomid   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS plusflow_unit ON plusflow (unit);
`

// DB is a flow-table store backed by a SQLite database file.
type DB struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the database at path and ensures the schema
// exists. Use ":memory:" for an ephemeral store. A nil logger disables
// logging.
func Open(path string, log *slog.Logger) (*DB, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.Level(1000),
		}))
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("flowdb: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("flowdb: init schema: %w", err)
	}
	return &DB{db: db, log: log}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// LoadFlowTable returns every edge recorded for a watershed management
// unit. An empty table is a valid result.
func (d *DB) LoadFlowTable(ctx context.Context, unit string) (nhdr.FlowTable, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT fromcomid, tocomid FROM plusflow WHERE unit = ? ORDER BY rowid`, unit)
	if err != nil {
		return nil, fmt.Errorf("flowdb: load unit %s: %w", unit, err)
	}
	table, err := scanEdges(rows)
	if err != nil {
		return nil, fmt.Errorf("flowdb: load unit %s: %w", unit, err)
	}
	d.log.Debug("flow table loaded", "unit", unit, "edges", len(table))
	return table, nil
}

// InsertEdges bulk-inserts edges for a unit inside one transaction.
func (d *DB) InsertEdges(ctx context.Context, unit string, edges nhdr.FlowTable) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("flowdb: begin insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO plusflow (unit, fromcomid, tocomid) VALUES (?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("flowdb: prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, unit, int64(e.From), int64(e.To)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("flowdb: insert edge %d->%d: %w", e.From, e.To, err)
		}
	}
	return tx.Commit()
}

// FlowTableFromQuery loads edges from an arbitrary query against any
// SQLite database, for example a PlusFlow extract with vendor table and
// column casing. Column names are matched case-insensitively, so
// FROMCOMID and FromComID both resolve; this normalization is required
// before any comid join.
func FlowTableFromQuery(ctx context.Context, db *sql.DB, query string, args ...interface{}) (nhdr.FlowTable, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("flowdb: query: %w", err)
	}
	return scanEdges(rows)
}

// scanEdges reads (fromcomid, tocomid) pairs from a result set,
// locating the columns by lower-cased name.
func scanEdges(rows *sql.Rows) (nhdr.FlowTable, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fromIdx, toIdx := -1, -1
	for i, c := range cols {
		switch strings.ToLower(c) {
		case "fromcomid":
			fromIdx = i
		case "tocomid":
			toIdx = i
		}
	}
	if fromIdx == -1 || toIdx == -1 {
		return nil, ErrMissingColumns
	}

	var table nhdr.FlowTable
	dest := make([]interface{}, len(cols))
	for rows.Next() {
		var from, to sql.NullInt64
		for i := range dest {
			var discard interface{}
			dest[i] = &discard
		}
		dest[fromIdx] = &from
		dest[toIdx] = &to

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if !from.Valid || !to.Valid {
			continue
		}
		table = append(table, nhdr.FlowEdge{
			From: nhdr.COMID(from.Int64),
			To:   nhdr.COMID(to.Int64),
		})
	}
	return table, rows.Err()
}
