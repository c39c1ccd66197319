package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore gives access to graph dumps, ontology documents and build reports.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// ReadAt reads len(p) bytes starting at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
	io.Closer
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// Stager is implemented by stores that can copy a blob to a local file more
// efficiently than a single sequential stream (e.g. parallel ranged downloads).
type Stager interface {
	Stage(ctx context.Context, name, dst string) error
}

// NewReader opens name and returns a sequential reader over the whole blob.
// Closing the reader closes the blob.
func NewReader(ctx context.Context, store BlobStore, name string) (io.ReadCloser, int64, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		_ = blob.Close()
		return nil, 0, err
	}
	return &blobReader{ReadCloser: rc, blob: blob}, blob.Size(), nil
}

type blobReader struct {
	io.ReadCloser
	blob Blob
}

func (r *blobReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.blob.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadAll returns the full content of name.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	rc, size, err := NewReader(ctx, store, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	buf.Grow(int(size))
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Stage copies name into the local file dst. Stores implementing Stager are
// used directly; anything else is streamed through NewReader.
func Stage(ctx context.Context, store BlobStore, name, dst string) error {
	if s, ok := store.(Stager); ok {
		return s.Stage(ctx, name, dst)
	}

	rc, _, err := NewReader(ctx, store, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
