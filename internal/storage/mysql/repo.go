// Package mysql implements a MySQL-backed storage.Repository using
// database/sql and the go-sql-driver. Inserts run inside a transaction with
// a prepared statement.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"csvingest/internal/record"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN is a go-sql-driver DSN, e.g. "user:pass@tcp(host:3306)/db".
	DSN string

	// Table is the destination table name.
	Table string

	// Columns are the destination columns in insert order.
	Columns []string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a MySQL connection pool and returns a Repository plus
// a close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}
	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// InsertMany appends rows inside a single transaction.
func (r *Repository) InsertMany(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: InsertMany: columns must not be empty")
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
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("mysql: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("mysql: InsertMany: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("mysql: insert: %w", err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	return inserted, nil
}

// Count returns the total number of rows in the configured table.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(r.cfg.Table))
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("mysql: count: %w", err)
	}
	return n, nil
}

// QueryByColumn returns all rows whose column equals value, in insertion
// order.
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
		return nil, fmt.Errorf("mysql: query by %s: %w", column, err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		vals := make([]any, len(r.cfg.Columns))
		ptrs := make([]any, len(r.cfg.Columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("mysql: scan: %w", err)
		}
		rec := make(record.Record, len(r.cfg.Columns))
		for i, c := range r.cfg.Columns {
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
			} else {
				rec[c] = vals[i]
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: rows: %w", err)
	}
	return out, nil
}

// Exec runs an arbitrary statement, typically DDL.
func (r *Repository) Exec(ctx context.Context, q string) error {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}

func checkColumn(columns []string, column string) error {
	for _, c := range columns {
		if c == column {
			return nil
		}
	}
	return fmt.Errorf("mysql: unknown column %q", column)
}

// quoteIdent backtick-quotes a single identifier.
func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

func quoteAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = quoteIdent(id)
	}
	return out
}
