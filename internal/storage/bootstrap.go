package storage

import (
	"context"
	"fmt"
	"sync"
)

// DDLBootstrapper creates the destination table (CREATE TABLE IF NOT EXISTS
// or the backend equivalent) through repo.Exec. Backends register their
// implementation for a storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, cfg Config) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable locates the DDLBootstrapper for cfg.Kind and invokes it, so
// callers never need to know which backend they are using.
func EnsureTable(ctx context.Context, repo Repository, cfg Config) error {
	if cfg.Table == "" {
		cfg.Table = UploadTable
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = UploadColumns()
	}

	ddlMu.RLock()
	fn, ok := ddlFns[cfg.Kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage kind %q", cfg.Kind)
	}
	return fn(ctx, repo, cfg)
}
