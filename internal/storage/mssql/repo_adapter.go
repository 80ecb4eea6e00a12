// This file wires the SQL Server backend into the storage factory.
package mssql

import (
	"context"
	"fmt"
	"strings"

	"csvingest/internal/storage"
)

var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("mssql", func(ctx context.Context, repo storage.Repository, cfg storage.Config) error {
		ddl, err := BuildCreateTableSQL(cfg.Table, cfg.Columns)
		if err != nil {
			return err
		}
		return repo.Exec(ctx, ddl)
	})
}

// BuildCreateTableSQL returns a guarded CREATE TABLE statement for the
// uploads table. T-SQL has no IF NOT EXISTS clause on CREATE TABLE, so the
// statement checks OBJECT_ID first. Every column is NVARCHAR(MAX).
func BuildCreateTableSQL(table string, columns []string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("mssql ddl: table name must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("mssql ddl: at least one column is required")
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%s NVARCHAR(MAX)", quoteIdent(c))
	}
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n  %s\n);",
		strings.ReplaceAll(table, "'", "''"),
		quoteIdent(table),
		strings.Join(defs, ",\n  "),
	), nil
}
