// Package wire implements the framing of the file transfer protocol:
// a newline-terminated ASCII command line, optionally followed by a
// 4-byte big-endian length frame and that many raw body bytes.
package wire

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	// MaxLineSize is the maximum length of a command line. A line that
	// reaches this size without a newline is treated as complete.
	MaxLineSize = 1024

	// MaxFilenameSize bounds the filename part of a command line.
	MaxFilenameSize = 256
)

// Verb is the request type carried by a command line.
type Verb uint8

const (
	VerbUnknown Verb = iota
	VerbSend
	VerbGet
)

func (v Verb) String() string {
	switch v {
	case VerbSend:
		return "SEND"
	case VerbGet:
		return "GET"
	default:
		return "UNKNOWN"
	}
}

// Command is a parsed request line.
type Command struct {
	Verb     Verb
	Filename string
}

// ReadLine reads one command line from r. It stops at the first newline
// or after MaxLineSize bytes, whichever comes first; in the latter case
// the buffer collected so far is the line. The newline is not included
// in the result. Disconnect before any byte arrives yields io.EOF;
// disconnect mid-line yields io.ErrUnexpectedEOF.
func ReadLine(r *bufio.Reader) (string, error) {
	var b strings.Builder
	for b.Len() < MaxLineSize {
		c, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && b.Len() > 0 {
				return b.String(), io.ErrUnexpectedEOF
			}
			return b.String(), err
		}
		if c == '\n' {
			break
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// ParseCommand splits a command line into verb and filename. The line is
// split on the first run of whitespace; the remainder is trimmed and used
// as the filename. Unrecognized or missing verbs map to VerbUnknown.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	verb, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		verb, rest = line[:i], line[i:]
	}
	cmd := Command{Filename: strings.TrimSpace(rest)}
	switch verb {
	case "SEND":
		cmd.Verb = VerbSend
	case "GET":
		cmd.Verb = VerbGet
	}
	return cmd
}

// ReadCommand reads and parses one command line.
func ReadCommand(r *bufio.Reader) (Command, error) {
	line, err := ReadLine(r)
	if err != nil {
		return Command{}, err
	}
	return ParseCommand(line), nil
}

// WriteCommand writes the command line for cmd, including the
// terminating newline.
func WriteCommand(w io.Writer, cmd Command) error {
	if cmd.Verb == VerbUnknown {
		return fmt.Errorf("cannot encode %v command", cmd.Verb)
	}
	if len(cmd.Filename) == 0 {
		return fmt.Errorf("missing filename")
	}
	if len(cmd.Filename) > MaxFilenameSize {
		return fmt.Errorf("filename exceeds %d bytes", MaxFilenameSize)
	}
	_, err := fmt.Fprintf(w, "%s %s\n", cmd.Verb, cmd.Filename)
	return err
}
