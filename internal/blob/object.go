package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// Object ties a remote key to its local copy. Download and Upload move the
// bytes; the rest of the methods describe what was moved.
type Object struct {
	store Store
	key   string

	localPath   string
	contentType string
	checksum    string
	size        int64
}

// NewObject returns an Object for key. Nothing is fetched until Download.
func NewObject(store Store, key string) *Object {
	return &Object{store: store, key: key}
}

// Key returns the remote object key.
func (o *Object) Key() string { return o.key }

// ContentType returns the content type reported by the store, empty before
// Download.
func (o *Object) ContentType() string { return o.contentType }

// LocalPath returns the path of the local copy, empty before Download or
// CreateLocal.
func (o *Object) LocalPath() string { return o.localPath }

// Checksum returns the xxh3 digest of the downloaded bytes as a hex string.
func (o *Object) Checksum() string { return o.checksum }

// Size returns the number of bytes downloaded.
func (o *Object) Size() int64 { return o.size }

// LocalExists reports whether the local copy is present on disk.
func (o *Object) LocalExists() bool {
	if o.localPath == "" {
		return false
	}
	_, err := os.Stat(o.localPath)
	return err == nil
}

// localName builds a collision-free file name for the local copy. Keys arrive
// URL-encoded in bucket events, so the base name is unescaped first.
func (o *Object) localName() string {
	name := o.key
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return uuid.NewString() + "_" + path.Base(name)
}

// Download fetches the object into destDir, recording its content type, size
// and checksum along the way.
func (o *Object) Download(ctx context.Context, destDir string) error {
	body, contentType, err := o.store.Fetch(ctx, o.key)
	if err != nil {
		return err
	}
	defer body.Close()

	dest := filepath.Join(destDir, o.localName())
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("blob: create %s: %w", dest, err)
	}

	h := xxh3.New()
	n, err := io.Copy(io.MultiWriter(f, h), body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("blob: download %s: %w", o.key, err)
	}

	o.localPath = dest
	o.contentType = contentType
	o.size = n
	o.checksum = fmt.Sprintf("%016x", h.Sum64())
	return nil
}

// CreateLocal makes an empty local file for the object without touching the
// store. Used to bootstrap a fresh database snapshot when none exists yet.
func (o *Object) CreateLocal(destDir string) error {
	dest := filepath.Join(destDir, o.localName())
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("blob: create %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("blob: close %s: %w", dest, err)
	}
	o.localPath = dest
	o.size = 0
	o.checksum = ""
	return nil
}

// Open returns a reader over the local copy for streaming row by row.
func (o *Object) Open(ctx context.Context) (io.ReadCloser, error) {
	if o.localPath == "" {
		return nil, fmt.Errorf("blob: %s has no local copy", o.key)
	}
	f, err := os.Open(o.localPath)
	if err != nil {
		return nil, fmt.Errorf("blob: open %s: %w", o.localPath, err)
	}
	return f, nil
}

// Upload writes the local copy back to the store under the original key.
func (o *Object) Upload(ctx context.Context, contentType string) error {
	if o.localPath == "" {
		return fmt.Errorf("blob: %s has no local copy to upload", o.key)
	}
	f, err := os.Open(o.localPath)
	if err != nil {
		return fmt.Errorf("blob: open %s: %w", o.localPath, err)
	}
	defer f.Close()
	return o.store.Put(ctx, o.key, f, contentType)
}

// Remove deletes the local copy. Removing an object that was never
// downloaded is a no-op.
func (o *Object) Remove() error {
	if o.localPath == "" {
		return nil
	}
	if err := os.Remove(o.localPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: remove %s: %w", o.localPath, err)
	}
	o.localPath = ""
	return nil
}

// Cleanup removes the local copies of every object, ignoring errors. Meant
// for deferred end-of-run housekeeping.
func Cleanup(objects ...*Object) {
	for _, o := range objects {
		if o != nil {
			_ = o.Remove()
		}
	}
}
