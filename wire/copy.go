package wire

import (
	"io"
)

// DefaultChunkSize is the buffer size used when moving frame bodies.
const DefaultChunkSize = 4096

// Copy moves exactly length bytes from src to dst in chunks of
// DefaultChunkSize. See CopyChunked.
func Copy(dst io.Writer, src io.Reader, length uint32) (uint32, error) {
	return CopyChunked(dst, src, length, DefaultChunkSize)
}

// CopyChunked moves exactly length bytes from src to dst, reading at
// most chunkSize bytes at a time. It returns the number of bytes moved.
// If src ends before length bytes have been read, the returned error is
// a *ShortTransferError; read and write errors are returned as-is. On
// success the returned count equals length exactly.
func CopyChunked(dst io.Writer, src io.Reader, length uint32, chunkSize int) (uint32, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)
	var moved uint32
	for moved < length {
		want := length - moved
		if want > uint32(chunkSize) {
			want = uint32(chunkSize)
		}
		n, err := src.Read(buf[:want])
		if n > 0 {
			nw, werr := dst.Write(buf[:n])
			if werr != nil {
				return moved + uint32(nw), werr
			}
			if nw < n {
				return moved + uint32(nw), io.ErrShortWrite
			}
			moved += uint32(n)
		}
		if err != nil {
			if err == io.EOF {
				if moved < length {
					return moved, &ShortTransferError{Declared: length, Moved: moved}
				}
				break
			}
			return moved, err
		}
	}
	return moved, nil
}
