// Package storage contains the storage-agnostic sink contract and the
// backend factory. Concrete backends (sqlite, postgres, mysql, mssql)
// register themselves at init time; importing internal/storage/all enables
// all of them.
package storage

import (
	"context"
	"fmt"
	"sync"

	"csvingest/internal/record"
)

// UploadTable is the default destination table for validated rows.
const UploadTable = "uploads"

// UploadColumns is the fixed column order of the uploads table. There is no
// uniqueness constraint: duplicate batch codes across re-ingested files are
// expected.
func UploadColumns() []string {
	return []string{"batch", "start", "end", "records", "pass", "message"}
}

// Repository is the persistent sink for validated rows.
type Repository interface {
	// InsertMany appends rows (aligned to the columns order) and returns the
	// number of rows inserted.
	InsertMany(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Count returns the total number of stored rows.
	Count(ctx context.Context) (int64, error)

	// QueryByColumn returns the stored rows whose column equals value, in
	// insertion order. column must be one of the configured columns.
	QueryByColumn(ctx context.Context, column, value string) ([]record.Record, error)

	// Exec runs an arbitrary statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// Close releases the underlying connection resources.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind    string   // "sqlite", "postgres", "mysql", "mssql"
	DSN     string   // backend connection string
	Table   string   // destination table; UploadTable when empty
	Columns []string // destination columns; UploadColumns() when empty
}

// Factory builds a Repository for one storage kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind. It is called from
// backend packages' init functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind, applying column and table defaults.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Table == "" {
		cfg.Table = UploadTable
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = UploadColumns()
	}

	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no storage backend registered for kind %q", cfg.Kind)
	}
	return fn(ctx, cfg)
}
