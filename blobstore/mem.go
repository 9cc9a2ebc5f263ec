package blobstore

import (
	"bytes"
	"io"
	"sync"
)

// MemStore keeps blobs in memory. It holds at most a fixed number of
// blobs; creating a new name beyond that is rejected with ErrStoreFull
// rather than evicting.
type MemStore struct {
	mu       sync.Mutex
	capacity int
	blobs    map[string][]byte
}

// NewMemStore creates an in-memory store holding up to capacity blobs.
func NewMemStore(capacity int) *MemStore {
	return &MemStore{
		capacity: capacity,
		blobs:    make(map[string][]byte, capacity),
	}
}

func (s *MemStore) Open(name string) (Blob, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	data, ok := s.blobs[name]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &memBlob{Reader: bytes.NewReader(data), size: int64(len(data))}, nil
}

func (s *MemStore) Create(name string) (io.WriteCloser, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[name]; !exists && len(s.blobs) >= s.capacity {
		return nil, ErrStoreFull
	}
	return &memWriter{store: s, name: name}, nil
}

// Len returns the number of stored blobs.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Put stores a blob directly, bypassing the writer interface.
func (s *MemStore) Put(name string, data []byte) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[name]; !exists && len(s.blobs) >= s.capacity {
		return ErrStoreFull
	}
	s.blobs[name] = append([]byte(nil), data...)
	return nil
}

type memBlob struct {
	*bytes.Reader
	size int64
}

func (b *memBlob) Size() int64 { return b.size }
func (b *memBlob) Close() error { return nil }

type memWriter struct {
	store *MemStore
	name  string
	buf   bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// Close commits the buffered content. The capacity check is repeated
// here: other writers may have filled the store since Create.
func (w *memWriter) Close() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	if _, exists := w.store.blobs[w.name]; !exists && len(w.store.blobs) >= w.store.capacity {
		return ErrStoreFull
	}
	w.store.blobs[w.name] = w.buf.Bytes()
	return nil
}
