package kcpconn

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filewire/filewire/blobstore"
	"github.com/filewire/filewire/fileserver"
)

func TestEcho(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		conn.SetDeadline(time.Now().Add(5 * time.Second))
		if _, err := io.ReadFull(conn, buf); err == nil {
			conn.Write(buf)
		}
	}()

	conn, err := Dial(ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)
	buf := make([]byte, 5)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

func TestFileTransfer(t *testing.T) {
	// The transfer protocol runs over KCP unchanged.
	content := make([]byte, 64*1024)
	for i := range content {
		content[i] = byte(i / 7)
	}
	store := blobstore.NewMemStore(4)
	require.NoError(t, store.Put("file", content))

	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	srv := fileserver.NewServer(fileserver.Config{
		Store:      store,
		AckTimeout: time.Second,
	})
	go srv.Serve(ln)
	defer srv.Close()

	client := fileserver.NewClient(fileserver.ClientConfig{
		Dial: func(ctx context.Context, addr string) (net.Conn, error) {
			return Dial(addr)
		},
		Timeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var buf bytes.Buffer
	n, err := client.Get(ctx, ln.Addr().String(), "file", &buf)
	require.NoError(t, err)
	assert.EqualValues(t, len(content), n)
	assert.True(t, bytes.Equal(content, buf.Bytes()), "wrong file content")
}

func TestFileUpload(t *testing.T) {
	// An upload bursts the whole body right after dial, before the
	// accepted session has been tuned. This must not stall on the
	// peer's initial receive window.
	content := make([]byte, 64*1024)
	for i := range content {
		content[i] = byte(i / 7)
	}
	store := blobstore.NewMemStore(4)

	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	srv := fileserver.NewServer(fileserver.Config{
		Store:      store,
		AckTimeout: time.Second,
	})
	go srv.Serve(ln)
	defer srv.Close()

	client := fileserver.NewClient(fileserver.ClientConfig{
		Dial: func(ctx context.Context, addr string) (net.Conn, error) {
			return Dial(addr)
		},
		Timeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = client.Send(ctx, ln.Addr().String(), "upload", uint32(len(content)), bytes.NewReader(content))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := client.Get(ctx, ln.Addr().String(), "upload", &buf)
	require.NoError(t, err)
	assert.EqualValues(t, len(content), n)
	assert.True(t, bytes.Equal(content, buf.Bytes()), "wrong file content")
}
