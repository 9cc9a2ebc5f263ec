package blobstore

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DirStore stores blobs as files under a directory.
type DirStore struct {
	dir string
}

// NewDirStore creates a store rooted at dir. The directory must exist.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Open(name string) (Blob, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !stat.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotFound
	}
	return &fileBlob{f, stat.Size()}, nil
}

func (s *DirStore) Create(name string) (io.WriteCloser, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	p := s.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, err
	}
	return os.Create(p)
}

func (s *DirStore) path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name))
}

type fileBlob struct {
	*os.File
	size int64
}

func (b *fileBlob) Size() int64 { return b.size }

// FSStore serves blobs from a read-only fs.FS.
type FSStore struct {
	fsys fs.FS
}

// NewFSStore creates a read-only store backed by fsys.
func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

func (s *FSStore) Open(name string) (Blob, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return &fsBlob{f, stat.Size()}, nil
}

func (s *FSStore) Create(string) (io.WriteCloser, error) {
	return nil, ErrReadOnly
}

type fsBlob struct {
	fs.File
	size int64
}

func (b *fsBlob) Size() int64 { return b.size }
