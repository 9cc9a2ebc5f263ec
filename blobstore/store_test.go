package blobstore

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStoreRoundTrip(t *testing.T) {
	store := NewDirStore(t.TempDir())

	w, err := store.Create("foo.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	blob, err := store.Open("foo.bin")
	require.NoError(t, err)
	defer blob.Close()
	assert.EqualValues(t, 5, blob.Size())

	content, err := io.ReadAll(blob)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestDirStoreTruncates(t *testing.T) {
	store := NewDirStore(t.TempDir())
	for _, content := range []string{"first version", "v2"} {
		w, err := store.Create("f")
		require.NoError(t, err)
		_, _ = w.Write([]byte(content))
		require.NoError(t, w.Close())
	}

	blob, err := store.Open("f")
	require.NoError(t, err)
	defer blob.Close()
	assert.EqualValues(t, 2, blob.Size())
}

func TestDirStoreNotFound(t *testing.T) {
	store := NewDirStore(t.TempDir())
	_, err := store.Open("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirStoreRejectsEscapes(t *testing.T) {
	dir := t.TempDir()
	store := NewDirStore(filepath.Join(dir, "root"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "root"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret"), []byte("x"), 0644))

	for _, name := range []string{"../secret", "/etc/passwd", ".", ""} {
		_, err := store.Open(name)
		assert.ErrorIs(t, err, fs.ErrInvalid, "open %q", name)
		_, err = store.Create(name)
		assert.ErrorIs(t, err, fs.ErrInvalid, "create %q", name)
	}
}

func TestDirStoreSubdir(t *testing.T) {
	store := NewDirStore(t.TempDir())
	w, err := store.Create("a/b/c.bin")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = store.Open("a/b/c.bin")
	require.NoError(t, err)
}

func TestFSStore(t *testing.T) {
	fsys := fstest.MapFS{
		"file": &fstest.MapFile{Data: []byte("content")},
	}
	store := NewFSStore(fsys)

	blob, err := store.Open("file")
	require.NoError(t, err)
	assert.EqualValues(t, 7, blob.Size())
	blob.Close()

	_, err = store.Open("other")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Create("file")
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestMemStoreCapacity(t *testing.T) {
	store := NewMemStore(2)
	require.NoError(t, store.Put("a", []byte("1")))
	require.NoError(t, store.Put("b", []byte("2")))

	// A third name is rejected, not silently dropped.
	err := store.Put("c", []byte("3"))
	assert.ErrorIs(t, err, ErrStoreFull)
	_, err = store.Create("c")
	assert.ErrorIs(t, err, ErrStoreFull)

	// Overwriting an existing name is fine at capacity.
	require.NoError(t, store.Put("a", []byte("new")))
	assert.Equal(t, 2, store.Len())
}

func TestMemStoreWriter(t *testing.T) {
	store := NewMemStore(4)
	w, err := store.Create("blob")
	require.NoError(t, err)
	_, _ = w.Write([]byte("he"))
	_, _ = w.Write([]byte("llo"))

	// Not visible until Close.
	_, err = store.Open("blob")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())
	blob, err := store.Open("blob")
	require.NoError(t, err)
	content, _ := io.ReadAll(blob)
	assert.Equal(t, "hello", string(content))
	assert.EqualValues(t, 5, blob.Size())
}
