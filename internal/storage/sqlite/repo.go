// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. Inserts run inside a transaction with a prepared statement;
// SQLite has no dedicated bulk-load API, but transactions keep performance
// acceptable for chunk-sized writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"csvingest/internal/record"
)

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is passed to database/sql; a plain file path or a file: URI, e.g.
	// "uploads.db3" or "file:uploads.db3?cache=shared".
	DSN string

	// Table is the destination table name.
	Table string

	// Columns are the destination columns in insert order.
	Columns []string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection for cfg.DSN and returns a
// Repository plus a close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// InsertMany appends rows inside a single transaction using a prepared
// statement. len(row) must equal len(columns) for every row.
func (r *Repository) InsertMany(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: InsertMany: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(r.cfg.Table),
		strings.Join(quoteAll(columns), ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: InsertMany: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Count returns the total number of rows in the configured table.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(r.cfg.Table))
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return n, nil
}

// QueryByColumn returns all rows whose column equals value, in insertion
// order. The column name must be one of the configured columns.
func (r *Repository) QueryByColumn(ctx context.Context, column, value string) ([]record.Record, error) {
	if err := checkColumn(r.cfg.Columns, column); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ?",
		strings.Join(quoteAll(r.cfg.Columns), ", "),
		quoteIdent(r.cfg.Table),
		quoteIdent(column),
	)
	rows, err := r.db.QueryContext(ctx, q, value)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query by %s: %w", column, err)
	}
	defer rows.Close()

	out, err := scanRecords(rows, r.cfg.Columns)
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan: %w", err)
	}
	return out, nil
}

// Exec runs an arbitrary statement, typically DDL.
func (r *Repository) Exec(ctx context.Context, q string) error {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// scanRecords reads every row into a record keyed by the column names.
// Values come back as driver strings because all columns are TEXT.
func scanRecords(rows *sql.Rows, columns []string) ([]record.Record, error) {
	var out []record.Record
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(record.Record, len(columns))
		for i, c := range columns {
			rec[c] = normalize(vals[i])
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func checkColumn(columns []string, column string) error {
	for _, c := range columns {
		if c == column {
			return nil
		}
	}
	return fmt.Errorf("sqlite: unknown column %q", column)
}

// quoteIdent double-quotes a single identifier. "end" is a reserved word in
// SQLite, so quoting is not optional here.
func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func quoteAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = quoteIdent(id)
	}
	return out
}
