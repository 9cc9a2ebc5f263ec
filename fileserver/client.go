package fileserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/filewire/filewire/wire"
)

var (
	// ErrNotFound is returned by Get when the server replies with the
	// zero-length sentinel header. Note the wire format cannot
	// distinguish a missing file from a genuinely empty one.
	ErrNotFound = errors.New("file not found on server")

	errBadAck = errors.New("server did not acknowledge transfer")
)

// ClientConfig is the client configuration.
type ClientConfig struct {
	// Dial opens a stream connection to a server. Defaults to TCP.
	Dial func(ctx context.Context, addr string) (net.Conn, error)

	// ChunkSize is the copy buffer size, defaults to wire.DefaultChunkSize.
	ChunkSize int

	// Timeout bounds each read and write on the connection.
	// Zero disables the deadline.
	Timeout time.Duration
}

func (cfg ClientConfig) withDefaults() ClientConfig {
	if cfg.Dial == nil {
		var d net.Dialer
		cfg.Dial = func(ctx context.Context, addr string) (net.Conn, error) {
			return d.DialContext(ctx, "tcp", addr)
		}
	}
	return cfg
}

// Client implements the initiator side of the transfer protocol. One
// connection is dialed per exchange; there is no keep-alive.
type Client struct {
	cfg *ClientConfig
}

func NewClient(cfg ClientConfig) *Client {
	cfg = cfg.withDefaults()
	return &Client{cfg: &cfg}
}

// Send uploads size bytes from body under the given name. It returns
// nil only after the server has acknowledged the complete transfer.
func (c *Client) Send(ctx context.Context, addr, name string, size uint32, body io.Reader) error {
	conn, err := c.dial(ctx, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	w := &timeoutWriter{conn: conn, timeout: c.cfg.Timeout}
	if err := wire.WriteCommand(w, wire.Command{Verb: wire.VerbSend, Filename: name}); err != nil {
		return err
	}
	if err := wire.WriteLength(w, size); err != nil {
		return fmt.Errorf("writing length frame: %w", err)
	}
	if _, err := wire.CopyChunked(w, body, size, c.cfg.ChunkSize); err != nil {
		return fmt.Errorf("sending body: %w", err)
	}

	// Wait for the server's 3-byte acknowledgment.
	r := &timeoutReader{conn: conn, timeout: c.cfg.Timeout}
	var ack [len(ackMessage)]byte
	if _, err := io.ReadFull(r, ack[:]); err != nil {
		return fmt.Errorf("%w: %v", errBadAck, err)
	}
	if string(ack[:]) != ackMessage {
		return errBadAck
	}
	return nil
}

// Get fetches the named file into sink and returns the number of body
// bytes received. A zero-length response header yields ErrNotFound.
func (c *Client) Get(ctx context.Context, addr, name string, sink io.Writer) (uint32, error) {
	conn, err := c.dial(ctx, addr)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	w := &timeoutWriter{conn: conn, timeout: c.cfg.Timeout}
	if err := wire.WriteCommand(w, wire.Command{Verb: wire.VerbGet, Filename: name}); err != nil {
		return 0, err
	}

	r := &timeoutReader{conn: conn, timeout: c.cfg.Timeout}
	length, err := wire.ReadLength(r)
	if err != nil {
		return 0, fmt.Errorf("reading length frame: %w", err)
	}
	if length == 0 {
		return 0, ErrNotFound
	}
	moved, err := wire.CopyChunked(sink, r, length, c.cfg.ChunkSize)
	if err != nil {
		return moved, fmt.Errorf("receiving body: %w", err)
	}

	// Settle the exchange. The transfer is already complete, so a
	// failure to deliver the acknowledgment is not an error.
	if _, err := io.WriteString(w, ackMessage); err != nil {
		log.Debug("Could not send acknowledgment", "addr", addr, "err", err)
	}
	return moved, nil
}

func (c *Client) dial(ctx context.Context, addr string) (net.Conn, error) {
	conn, err := c.cfg.Dial(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	return conn, nil
}
