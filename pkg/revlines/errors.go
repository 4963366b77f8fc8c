package revlines

import (
	"errors"
	"fmt"
)

var (
	// ErrIO matches every error caused by the underlying stream.
	ErrIO = errors.New("revlines: i/o error")

	// ErrInvalidState reports a broken internal invariant. It indicates a bug
	// rather than a runtime condition.
	ErrInvalidState = errors.New("revlines: invalid state")
)

// IOError describes a failed size query, seek or read on the stream.
type IOError struct {
	// Op is one of "size", "seek" or "read".
	Op string

	// Offset is the absolute stream offset the operation targeted.
	Offset int64

	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("revlines: %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

// Unwrap exposes both ErrIO and the stream error to errors.Is and errors.As.
func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}
