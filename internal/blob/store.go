// Package blob moves objects between a remote object store and local disk.
// The ingest handler downloads incoming files and the database snapshot
// through it and uploads the refreshed snapshot back when a run finishes.
package blob

import (
	"context"
	"io"
)

// Store is the minimal object-store surface the pipeline needs.
type Store interface {
	// Fetch streams the object at key. It returns the body, the stored
	// content type, and an error. The caller closes the body.
	Fetch(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Put writes body to key with the given content type.
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}
