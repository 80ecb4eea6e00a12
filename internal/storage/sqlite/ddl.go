package sqlite

import (
	"context"
	"fmt"
	"strings"

	"csvingest/internal/storage"
)

// BuildCreateTableSQL returns the CREATE TABLE IF NOT EXISTS statement for
// the uploads table. Every column is TEXT: validation guarantees format, not
// storage type, and the table carries no uniqueness constraint by design.
func BuildCreateTableSQL(table string, columns []string) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("sqlite ddl: table name must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("sqlite ddl: at least one column is required")
	}

	defs := make([]string, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return "", fmt.Errorf("sqlite ddl: column with empty name in table %s", table)
		}
		defs[i] = fmt.Sprintf("%s TEXT", quoteIdent(c))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoteIdent(table),
		strings.Join(defs, ",\n  "),
	), nil
}

// EnsureTable applies the uploads DDL through the repository.
func EnsureTable(ctx context.Context, repo storage.Repository, cfg storage.Config) error {
	ddl, err := BuildCreateTableSQL(cfg.Table, cfg.Columns)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, ddl)
}
