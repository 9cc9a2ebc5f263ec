package wire

import (
	"encoding/binary"
	"io"
)

// HeaderSize is the length of the frame header on the wire.
const HeaderSize = 4

// ReadLength reads a 4-byte big-endian frame header from r. Short reads
// are retried until all header bytes have arrived; a disconnect before
// that yields io.EOF or io.ErrUnexpectedEOF.
func ReadLength(r io.Reader) (uint32, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteLength writes the 4-byte big-endian encoding of n to w.
func WriteLength(w io.Writer, n uint32) error {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint32(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}
