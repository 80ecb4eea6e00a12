package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"csvingest/internal/blob"
	"csvingest/internal/config"
	"csvingest/internal/loader"
	"csvingest/internal/metrics"
	"csvingest/internal/parser/csv"
	"csvingest/internal/record"
	"csvingest/internal/storage"
)

// snapshotContentType is the content type the database snapshot is stored
// under in the bucket.
const snapshotContentType = "application/octet-stream"

// Summary reports what a run did.
type Summary struct {
	// Processed is the number of CSV files streamed into storage, whether or
	// not any of their rows survived validation.
	Processed int

	// Skipped is the number of event objects whose content type was not CSV.
	Skipped int

	// Failed is the number of objects that hit an infrastructure error
	// (download or insert). Their rows may be partially loaded.
	Failed int

	// Inserted is the total number of rows written across all files.
	Inserted int64
}

// Handler runs the ingest pipeline for bucket notification events.
type Handler struct {
	cfg   config.Ingest
	store blob.Store
	log   hclog.Logger
}

// New builds a Handler. A nil logger disables logging.
func New(cfg config.Ingest, store blob.Store, log hclog.Logger) *Handler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	cfg.ApplyDefaults()
	return &Handler{cfg: cfg, store: store, log: log}
}

// Run processes every object named by event. One bad file never stops the
// others: download and insert failures are logged, counted in the summary,
// and the run moves on. Run itself fails only when storage cannot be opened
// or the refreshed snapshot cannot be written back.
func (h *Handler) Run(ctx context.Context, event record.Record) (Summary, error) {
	var sum Summary

	objects := EventObjects(event)
	if len(objects) == 0 {
		h.log.Warn("event names no objects, nothing to do")
		return sum, nil
	}

	snapshot, cleanupSnapshot, err := h.openSnapshot(ctx)
	if err != nil {
		return sum, err
	}
	defer cleanupSnapshot()

	storageCfg := storage.Config{
		Kind:    h.cfg.Storage.Kind,
		DSN:     h.cfg.Storage.DB.DSN,
		Table:   h.cfg.Storage.DB.Table,
		Columns: storage.UploadColumns(),
	}
	if snapshot != nil {
		storageCfg.DSN = snapshot.LocalPath()
	}

	repo, err := storage.New(ctx, storageCfg)
	if err != nil {
		return sum, fmt.Errorf("ingest: open storage: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			repo.Close()
		}
	}()

	if h.cfg.Storage.DB.AutoCreateTable || snapshot != nil {
		if err := storage.EnsureTable(ctx, repo, storageCfg); err != nil {
			return sum, fmt.Errorf("ingest: ensure table: %w", err)
		}
	}

	ld := loader.New(loader.Config{
		CSV:       csv.FromConfig(h.cfg.Parser.Options),
		BatchSize: h.cfg.Runtime.BatchSize,
		Log:       h.log,
	})

	for _, eo := range objects {
		start := time.Now()
		obj := blob.NewObject(h.store, eo.Key)

		if err := obj.Download(ctx, h.cfg.TempDir); err != nil {
			h.log.Error("download failed", "key", eo.Key, "error", err)
			sum.Failed++
			metrics.RecordFile("failed", time.Since(start))
			continue
		}

		if !loader.IsCSV(obj.ContentType()) {
			h.log.Info("skipping non-csv object", "key", eo.Key, "content_type", obj.ContentType())
			sum.Skipped++
			metrics.RecordFile("skipped", time.Since(start))
			blob.Cleanup(obj)
			continue
		}

		n, err := ld.ProcessRecords(ctx, obj, repo)
		sum.Inserted += n
		blob.Cleanup(obj)
		if err != nil {
			h.log.Error("load failed", "key", eo.Key, "inserted", n, "error", err)
			sum.Failed++
			metrics.RecordFile("failed", time.Since(start))
			continue
		}

		h.log.Info("object loaded",
			"key", eo.Key,
			"size", obj.Size(),
			"checksum", obj.Checksum(),
			"inserted", n,
			"elapsed", time.Since(start),
		)
		sum.Processed++
		metrics.RecordFile("processed", time.Since(start))
	}

	// The snapshot file must be closed before it is uploaded, or the bucket
	// copy may miss the tail of the last transaction.
	repo.Close()
	closed = true

	if snapshot != nil {
		if err := snapshot.Upload(ctx, snapshotContentType); err != nil {
			return sum, fmt.Errorf("ingest: upload snapshot: %w", err)
		}
		h.log.Info("snapshot uploaded", "key", snapshot.Key())
	}

	return sum, nil
}

// openSnapshot fetches the persistent sqlite snapshot from the bucket, or
// creates an empty local file when the bucket has none yet. It returns nil
// when the configured storage manages its own state (an explicit DSN or a
// server-side backend).
func (h *Handler) openSnapshot(ctx context.Context) (*blob.Object, func(), error) {
	if h.cfg.Storage.Kind != "sqlite" || h.cfg.Storage.DB.DSN != "" {
		return nil, func() {}, nil
	}

	obj := blob.NewObject(h.store, h.cfg.StoreKey)
	if err := obj.Download(ctx, h.cfg.TempDir); err != nil {
		h.log.Info("no snapshot in bucket, starting fresh", "key", h.cfg.StoreKey, "error", err)
		if err := obj.CreateLocal(h.cfg.TempDir); err != nil {
			return nil, func() {}, fmt.Errorf("ingest: create snapshot: %w", err)
		}
	}
	return obj, func() { blob.Cleanup(obj) }, nil
}
