// Package fileserver implements the SEND/GET file transfer protocol:
// an ASCII command line, a 4-byte big-endian length frame, the raw body,
// and a 3-byte "OK\n" settle handshake before the connection closes.
// The server is agnostic to the underlying stream transport and blob
// backend; it serves any net.Listener against any blobstore.Store.
package fileserver

import (
	"net"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/filewire/filewire/blobstore"
)

const (
	// DefaultMaxFileSize is the default cap on SEND bodies.
	DefaultMaxFileSize = 10 * 1024 * 1024

	// DefaultAckTimeout is how long the server waits for the client's
	// acknowledgment after a GET body has been sent.
	DefaultAckTimeout = 5 * time.Second
)

// Config is the server configuration.
type Config struct {
	Store blobstore.Store // blob backend, required

	// MaxFileSize caps the declared length of SEND bodies. Defaults to
	// DefaultMaxFileSize; set to math.MaxUint32 for no cap.
	MaxFileSize uint32

	// ChunkSize is the copy buffer size, defaults to wire.DefaultChunkSize.
	ChunkSize int

	// ReadTimeout and WriteTimeout bound individual reads and writes on
	// a connection. Zero disables the deadline.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AckTimeout bounds the wait for the peer acknowledgment after a
	// GET. A missing acknowledgment is logged, not treated as an error.
	AckTimeout time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	return cfg
}

// Server handles transfer connections. Connections are served
// concurrently; the store is the only shared resource, and concurrent
// SEND/GET against the same name may race (last writer wins).
type Server struct {
	cfg *Config

	mu       sync.Mutex
	listener net.Listener

	wg   sync.WaitGroup
	quit chan struct{}
}

// NewServer creates a transfer server using the given backend store.
func NewServer(cfg Config) *Server {
	if cfg.Store == nil {
		panic("fileserver: config has no store")
	}
	cfg = cfg.withDefaults()
	return &Server{cfg: &cfg, quit: make(chan struct{})}
}

// Serve accepts connections on ln until Close is called or the listener
// fails. Each connection carries exactly one request/response exchange.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				return err
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Close stops the listener and waits for in-flight sessions.
func (s *Server) Close() {
	close(s.quit)
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	sess := newSession(s.cfg, conn)
	if err := sess.run(); err != nil {
		log.Error("Transfer session failed", "addr", conn.RemoteAddr(), "err", err)
	}
}
