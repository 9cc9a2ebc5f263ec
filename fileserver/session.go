package fileserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"net"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/filewire/filewire/blobstore"
	"github.com/filewire/filewire/wire"
)

const (
	ackMessage          = "OK\n"
	unknownCommandReply = "ERROR: Unknown command\n"
)

var (
	errMissingFilename = errors.New("missing filename in command")
	errFilenameTooLong = errors.New("filename too long")
)

// closeWriter is implemented by connections that support shutting down
// only the write direction (e.g. *net.TCPConn).
type closeWriter interface {
	CloseWrite() error
}

// session drives one request/response exchange on a connection:
// command line, length frame, body, acknowledgment, shutdown.
type session struct {
	cfg  *Config
	conn net.Conn
	tr   *timeoutReader
	br   *bufio.Reader
	w    io.Writer
}

func newSession(cfg *Config, conn net.Conn) *session {
	tr := &timeoutReader{conn: conn, timeout: cfg.ReadTimeout}
	return &session{
		cfg:  cfg,
		conn: conn,
		tr:   tr,
		br:   bufio.NewReader(tr),
		w:    &timeoutWriter{conn: conn, timeout: cfg.WriteTimeout},
	}
}

func (s *session) run() error {
	line, err := wire.ReadLine(s.br)
	if err == io.EOF {
		// Peer went away before sending anything.
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading command: %w", err)
	}
	if strings.TrimSpace(line) == "" {
		return nil
	}

	cmd := wire.ParseCommand(line)
	switch cmd.Verb {
	case wire.VerbSend:
		return s.handleSend(cmd)
	case wire.VerbGet:
		return s.handleGet(cmd)
	default:
		log.Debug("Unknown command", "addr", s.conn.RemoteAddr(), "line", line)
		_, err := io.WriteString(s.w, unknownCommandReply)
		return err
	}
}

func checkFilename(cmd wire.Command) error {
	if cmd.Filename == "" {
		return errMissingFilename
	}
	if len(cmd.Filename) > wire.MaxFilenameSize {
		return errFilenameTooLong
	}
	return nil
}

// handleSend receives a length frame and body into the store, then
// acknowledges with "OK\n" and half-closes the write direction so the
// peer can observe all written bytes before teardown.
func (s *session) handleSend(cmd wire.Command) error {
	if err := checkFilename(cmd); err != nil {
		return err
	}
	length, err := wire.ReadLength(s.br)
	if err != nil {
		return fmt.Errorf("reading length frame: %w", err)
	}
	if length > s.cfg.MaxFileSize {
		return fmt.Errorf("declared length %d exceeds limit %d", length, s.cfg.MaxFileSize)
	}

	start := time.Now()
	w, err := s.cfg.Store.Create(cmd.Filename)
	if err != nil {
		return fmt.Errorf("creating %q: %w", cmd.Filename, err)
	}
	moved, err := wire.CopyChunked(w, s.br, length, s.cfg.ChunkSize)
	if err != nil {
		// A truncated blob may remain; it was never acknowledged.
		w.Close()
		return fmt.Errorf("receiving body of %q: %w", cmd.Filename, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("committing %q: %w", cmd.Filename, err)
	}

	if _, err := io.WriteString(s.w, ackMessage); err != nil {
		return fmt.Errorf("sending acknowledgment: %w", err)
	}
	if cw, ok := s.conn.(closeWriter); ok {
		cw.CloseWrite()
	}
	log.Info("Received file", "name", cmd.Filename, "size", moved, "elapsed", time.Since(start))
	return nil
}

// handleGet sends a length frame and the blob body, or an all-zero
// header when the name cannot be opened. It then waits for the peer's
// acknowledgment, tolerating its absence.
func (s *session) handleGet(cmd wire.Command) error {
	if err := checkFilename(cmd); err != nil {
		return err
	}

	blob, err := s.cfg.Store.Open(cmd.Filename)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, fs.ErrInvalid) {
			log.Debug("File not found", "name", cmd.Filename, "addr", s.conn.RemoteAddr())
			return wire.WriteLength(s.w, 0)
		}
		return fmt.Errorf("opening %q: %w", cmd.Filename, err)
	}

	size := blob.Size()
	if size < 0 || size > math.MaxUint32 {
		blob.Close()
		return fmt.Errorf("%q does not fit the length frame (%d bytes)", cmd.Filename, size)
	}

	start := time.Now()
	if err := wire.WriteLength(s.w, uint32(size)); err != nil {
		blob.Close()
		return fmt.Errorf("writing length frame: %w", err)
	}
	moved, err := wire.CopyChunked(s.w, blob, uint32(size), s.cfg.ChunkSize)
	blob.Close()
	if err != nil {
		return fmt.Errorf("sending body of %q: %w", cmd.Filename, err)
	}
	log.Info("Sent file", "name", cmd.Filename, "size", moved, "elapsed", time.Since(start))

	s.awaitAck()
	return nil
}

// awaitAck reads the 3-byte settle acknowledgment after a GET. Some
// clients disconnect without sending it; that is tolerated and only
// logged.
func (s *session) awaitAck() {
	s.tr.timeout = s.cfg.AckTimeout
	var ack [len(ackMessage)]byte
	if _, err := io.ReadFull(s.br, ack[:]); err != nil {
		log.Warn("No acknowledgment from peer", "addr", s.conn.RemoteAddr(), "err", err)
		return
	}
	if string(ack[:]) != ackMessage {
		log.Warn("Bad acknowledgment from peer", "addr", s.conn.RemoteAddr(), "ack", fmt.Sprintf("%q", ack[:]))
	}
}

// timeoutReader refreshes the connection read deadline before each read.
type timeoutReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	if r.timeout > 0 {
		r.conn.SetReadDeadline(time.Now().Add(r.timeout))
	}
	return r.conn.Read(p)
}

// timeoutWriter refreshes the connection write deadline before each write.
type timeoutWriter struct {
	conn    net.Conn
	timeout time.Duration
}

func (w *timeoutWriter) Write(p []byte) (int, error) {
	if w.timeout > 0 {
		w.conn.SetWriteDeadline(time.Now().Add(w.timeout))
	}
	return w.conn.Write(p)
}
