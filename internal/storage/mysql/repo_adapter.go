// This file wires the MySQL backend into the storage factory.
package mysql

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
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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

	storage.RegisterDDL("mysql", func(ctx context.Context, repo storage.Repository, cfg storage.Config) error {
		ddl, err := BuildCreateTableSQL(cfg.Table, cfg.Columns)
		if err != nil {
			return err
		}
		return repo.Exec(ctx, ddl)
	})
}

// BuildCreateTableSQL returns the CREATE TABLE IF NOT EXISTS statement for
// the uploads table; every column is TEXT.
func BuildCreateTableSQL(table string, columns []string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("mysql ddl: table name must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("mysql ddl: at least one column is required")
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%s TEXT", quoteIdent(c))
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoteIdent(table),
		strings.Join(defs, ",\n  "),
	), nil
}
