package revlines

import (
	"fmt"
	"io"
)

// chunkCursor hands out the blocks of a stream from the end towards the start.
// It is the only code that moves the stream's read offset.
type chunkCursor struct {
	r         io.ReadSeeker
	size      int64
	pos       int64
	chunkSize int64
}

func newChunkCursor(r io.ReadSeeker, chunkSize int) (*chunkCursor, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, &IOError{Op: "size", Err: err}
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: stream reported negative size %d", ErrInvalidState, size)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidState, chunkSize)
	}

	return &chunkCursor{
		r:         r,
		size:      size,
		pos:       size,
		chunkSize: int64(chunkSize),
	}, nil
}

func (c *chunkCursor) exhausted() bool {
	return c.pos == 0
}

// fetchPrevious reads the block that ends at the current scan position and
// moves the position to the block's start. It returns io.EOF once the start
// of the stream has been reached.
func (c *chunkCursor) fetchPrevious() ([]byte, error) {
	if c.pos < 0 || c.pos > c.size {
		return nil, fmt.Errorf("%w: scan position %d outside [0, %d]", ErrInvalidState, c.pos, c.size)
	}
	if c.pos == 0 {
		return nil, io.EOF
	}

	n := min(c.chunkSize, c.pos)
	from := c.pos - n

	if _, err := c.r.Seek(from, io.SeekStart); err != nil {
		return nil, &IOError{Op: "seek", Offset: from, Err: err}
	}

	block := make([]byte, n)
	if _, err := io.ReadFull(c.r, block); err != nil {
		// The stream shrank underneath us. Keep io.EOF for "no more lines".
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &IOError{Op: "read", Offset: from, Err: err}
	}

	c.pos = from
	return block, nil
}
