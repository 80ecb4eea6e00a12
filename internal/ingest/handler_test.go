package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"csvingest/internal/config"
	"csvingest/internal/record"
	"csvingest/internal/storage/sqlite"
)

// fakeStore is an in-memory object store.
type fakeStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
	puts         []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (f *fakeStore) add(key, contentType string, body string) {
	f.objects[key] = []byte(body)
	f.contentTypes[key] = contentType
}

func (f *fakeStore) Fetch(ctx context.Context, key string) (io.ReadCloser, string, error) {
	b, ok := f.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("no such key %q", key)
	}
	return io.NopCloser(bytes.NewReader(b)), f.contentTypes[key], nil
}

func (f *fakeStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = b
	f.contentTypes[key] = contentType
	f.puts = append(f.puts, key)
	return nil
}

func eventFor(t *testing.T, keys ...string) record.Record {
	t.Helper()
	var entries []string
	for _, k := range keys {
		entries = append(entries, fmt.Sprintf(
			`{"s3": {"bucket": {"name": "b"}, "object": {"key": %q}}}`, k))
	}
	evt, err := ParseEvent(strings.NewReader(`{"Records": [` + strings.Join(entries, ",") + `]}`))
	if err != nil {
		t.Fatal(err)
	}
	return evt
}

func testConfig(t *testing.T) config.Ingest {
	t.Helper()
	cfg := config.Ingest{Bucket: "b", TempDir: t.TempDir()}
	cfg.ApplyDefaults()
	return cfg
}

// countRows opens the snapshot bytes as a sqlite database and counts rows.
func countRows(t *testing.T, snapshot []byte) int64 {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snap.db3")
	if err := os.WriteFile(path, snapshot, 0o644); err != nil {
		t.Fatal(err)
	}
	repo, closeFn, err := sqlite.NewRepository(context.Background(), sqlite.Config{
		DSN:     path,
		Table:   "uploads",
		Columns: []string{"batch", "start", "end", "records", "pass", "message"},
	})
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer closeFn()
	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

const csvBody = "batch,start,end,records,pass,message\n" +
	"ABCDEFGHIJKLMNOPQRST,2020-01-04T13:04:05,2020-01-04T14:04:05,120,true,ok\n" +
	"UVWXYZABCDEFGHIJKLMN,2020-02-04T13:04:05,2020-02-04T14:04:05,7,false,late\n"

func TestRunLoadsCSVAndUploadsSnapshot(t *testing.T) {
	store := newFakeStore()
	store.add("incoming/batch.csv", "text/csv", csvBody)

	h := New(testConfig(t), store, nil)
	sum, err := h.Run(context.Background(), eventFor(t, "incoming/batch.csv"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 1 || sum.Skipped != 0 || sum.Failed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", sum.Inserted)
	}

	snap, ok := store.objects[config.DefaultStoreKey]
	if !ok {
		t.Fatalf("snapshot not uploaded; puts = %v", store.puts)
	}
	if got := countRows(t, snap); got != 2 {
		t.Errorf("snapshot rows = %d, want 2", got)
	}
}

func TestRunAppendsToExistingSnapshot(t *testing.T) {
	store := newFakeStore()
	store.add("one.csv", "text/csv", csvBody)
	cfg := testConfig(t)

	if _, err := New(cfg, store, nil).Run(context.Background(), eventFor(t, "one.csv")); err != nil {
		t.Fatalf("first run: %v", err)
	}

	store.add("two.csv", "text/csv", csvBody)
	sum, err := New(cfg, store, nil).Run(context.Background(), eventFor(t, "two.csv"))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Inserted != 2 {
		t.Errorf("second run Inserted = %d, want 2", sum.Inserted)
	}
	if got := countRows(t, store.objects[config.DefaultStoreKey]); got != 4 {
		t.Errorf("snapshot rows after two runs = %d, want 4", got)
	}
}

func TestRunSkipsNonCSV(t *testing.T) {
	store := newFakeStore()
	store.add("photo.png", "image/png", "\x89PNG")
	store.add("data.csv", "text/csv", csvBody)

	sum, err := New(testConfig(t), store, nil).Run(
		context.Background(), eventFor(t, "photo.png", "data.csv"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Skipped != 1 || sum.Processed != 1 || sum.Inserted != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunIsolatesPerObjectFailures(t *testing.T) {
	store := newFakeStore()
	store.add("good.csv", "text/csv", csvBody)

	sum, err := New(testConfig(t), store, nil).Run(
		context.Background(), eventFor(t, "missing.csv", "good.csv"))
	if err != nil {
		t.Fatalf("a missing object must not fail the run: %v", err)
	}
	if sum.Failed != 1 || sum.Processed != 1 || sum.Inserted != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunEmptyEvent(t *testing.T) {
	store := newFakeStore()
	sum, err := New(testConfig(t), store, nil).Run(context.Background(), record.Record{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum != (Summary{}) {
		t.Errorf("summary = %+v, want zero", sum)
	}
	if len(store.puts) != 0 {
		t.Errorf("nothing should be uploaded for an empty event, got %v", store.puts)
	}
}

func TestRunLeavesNoLocalFiles(t *testing.T) {
	store := newFakeStore()
	store.add("data.csv", "text/csv", csvBody)
	cfg := testConfig(t)

	if _, err := New(cfg, store, nil).Run(context.Background(), eventFor(t, "data.csv")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(cfg.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("temp dir not cleaned up: %v", names)
	}
}
