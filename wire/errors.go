package wire

import (
	"errors"
	"fmt"
)

// ShortTransferError reports a stream that ended before the declared
// frame length was reached.
type ShortTransferError struct {
	Declared uint32
	Moved    uint32
}

func (e *ShortTransferError) Error() string {
	return fmt.Sprintf("short transfer: %d of %d bytes", e.Moved, e.Declared)
}

// IsShortTransfer reports whether err is a short-transfer error.
func IsShortTransfer(err error) bool {
	var e *ShortTransferError
	return errors.As(err, &e)
}
