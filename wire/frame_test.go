package wire

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLengthRoundTrip(t *testing.T) {
	for _, n := range []uint32{0, 1, 5, 4096, 1<<32 - 1} {
		var buf bytes.Buffer
		require.NoError(t, WriteLength(&buf, n))
		assert.Equal(t, HeaderSize, buf.Len())

		got, err := ReadLength(&buf)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestLengthEncoding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLength(&buf, 5))
	assert.Equal(t, []byte{0, 0, 0, 5}, buf.Bytes())
}

func TestReadLengthPartial(t *testing.T) {
	// The header is assembled across arbitrarily small reads.
	r := iotest.OneByteReader(bytes.NewReader([]byte{0, 0, 0x27, 0x10}))
	n, err := ReadLength(r)
	require.NoError(t, err)
	assert.EqualValues(t, 10000, n)
}

func TestReadLengthDisconnect(t *testing.T) {
	_, err := ReadLength(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)

	_, err = ReadLength(bytes.NewReader([]byte{0, 0}))
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}
