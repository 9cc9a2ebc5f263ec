// Package blobstore abstracts the named-blob backends the transfer
// protocol reads from and writes to. A Store maps protocol filenames to
// blobs; implementations are provided for a directory on disk, a
// read-only fs.FS, and a bounded in-memory map.
package blobstore

import (
	"errors"
	"io"
	"io/fs"
	"path"
)

var (
	// ErrNotFound is returned by Open when no blob has the given name.
	ErrNotFound = errors.New("blob not found")

	// ErrReadOnly is returned by Create on stores that cannot be written.
	ErrReadOnly = errors.New("store is read-only")

	// ErrStoreFull is returned by Create when a bounded store has
	// reached its capacity. Full stores reject, they do not evict.
	ErrStoreFull = errors.New("store capacity exceeded")
)

// Blob is an open named blob. The size is fixed at open time.
type Blob interface {
	io.ReadCloser
	Size() int64
}

// Store is a collection of named blobs.
type Store interface {
	// Open opens the named blob for reading. It returns ErrNotFound if
	// no such blob exists and fs.ErrInvalid for unusable names.
	Open(name string) (Blob, error)

	// Create creates the named blob, truncating any previous content.
	// Whether partial content is visible to Open before the returned
	// writer is closed depends on the backend: MemStore commits on
	// Close, while DirStore writes through to the file immediately.
	Create(name string) (io.WriteCloser, error)
}

// cleanName validates and normalizes a protocol filename. Names are
// slash-separated and confined to the store root.
func cleanName(name string) (string, error) {
	name = path.Clean(name)
	if name == "." || !fs.ValidPath(name) {
		return "", fs.ErrInvalid
	}
	return name, nil
}
