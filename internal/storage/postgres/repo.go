// Package postgres implements a Postgres-backed storage.Repository using pgx
// v5. Bulk inserts go through the COPY protocol.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"csvingest/internal/record"
)

// Config holds Postgres repository configuration.
type Config struct {
	// DSN is the connection string for pgxpool, e.g. "postgresql://...".
	DSN string

	// Table is the possibly schema-qualified destination table, e.g.
	// "public.uploads".
	Table string

	// Columns are the destination columns in insert order.
	Columns []string
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, closeFn, nil
}

// InsertMany appends rows via COPY and returns the number of rows written.
func (r *Repository) InsertMany(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, splitFQN(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy: %w", err)
	}
	return n, nil
}

// Count returns the total number of rows in the configured table.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", pgFQN(r.cfg.Table))
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
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
		"SELECT %s FROM %s WHERE %s = $1",
		strings.Join(mapIdent(r.cfg.Columns), ", "),
		pgFQN(r.cfg.Table),
		pgIdent(column),
	)
	rows, err := r.pool.Query(ctx, q, value)
	if err != nil {
		return nil, fmt.Errorf("postgres: query by %s: %w", column, err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		rec := make(record.Record, len(r.cfg.Columns))
		for i, c := range r.cfg.Columns {
			if i < len(vals) {
				rec[c] = vals[i]
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}
	return out, nil
}

// Exec runs an arbitrary statement, typically DDL.
func (r *Repository) Exec(ctx context.Context, q string) error {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

func checkColumn(columns []string, column string) error {
	for _, c := range columns {
		if c == column {
			return nil
		}
	}
	return fmt.Errorf("postgres: unknown column %q", column)
}

// pgIdent safely quotes a single identifier segment.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.uploads" to
// "public"."uploads".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
