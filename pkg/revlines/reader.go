package revlines

import (
	"bytes"
	"context"
	"io"
	"iter"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Reader yields the lines of a stream from last to first.
//
// Lines are returned without their terminator. A terminator is either LF or
// CR LF. A terminator at the very end of the stream closes the last line and
// does not produce an extra empty line. A Reader is not safe for concurrent
// use.
type Reader struct {
	cursor *chunkCursor

	// pending holds bytes read but not yet handed out. Its tail is the
	// segment currently being assembled.
	pending []byte

	// terminated reports whether the segment at the tail of pending is
	// followed by a LF in the stream. Only the segment closest to EOF is not.
	terminated bool

	// err is sticky: io.EOF once exhausted, or the first fetch failure.
	err error

	chunkSize int
	logger    log.Logger
	metrics   *Metrics
}

// New returns a Reader positioned at the end of rs. The stream's size is
// captured once; data appended afterwards is not seen.
func New(rs io.ReadSeeker, opts ...Option) (*Reader, error) {
	r := &Reader{
		chunkSize: DefaultChunkSize,
		logger:    log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	cursor, err := newChunkCursor(rs, r.chunkSize)
	if err != nil {
		return nil, err
	}
	r.cursor = cursor

	level.Debug(r.logger).Log("msg", "reverse reader ready", "size", cursor.size, "chunk_size", r.chunkSize)
	return r, nil
}

// Size returns the stream length captured at construction.
func (r *Reader) Size() int64 {
	return r.cursor.size
}

// Offset returns the stream offset of the earliest byte read so far.
func (r *Reader) Offset() int64 {
	return r.cursor.pos
}

// Next returns the next line, moving towards the start of the stream.
// It returns io.EOF when every line has been returned. Any other error ends
// the sequence and is returned again by later calls. A canceled ctx is
// reported before any further read and does not end the sequence.
func (r *Reader) Next(ctx context.Context) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	for {
		if i := bytes.LastIndexByte(r.pending, '\n'); i >= 0 {
			segment := r.pending[i+1:]
			terminated := r.terminated
			r.pending = r.pending[:i]
			r.terminated = true

			// Only the segment after the last LF is unterminated; when empty
			// it is the stream's trailing terminator, not a line.
			if !terminated && len(segment) == 0 {
				continue
			}
			return r.emit(segment, terminated), nil
		}

		if r.cursor.exhausted() {
			if !r.terminated && len(r.pending) == 0 {
				r.err = io.EOF
				return nil, io.EOF
			}
			segment, terminated := r.pending, r.terminated
			r.pending, r.terminated = nil, false
			return r.emit(segment, terminated), nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.fill(); err != nil {
			r.err = err
			return nil, err
		}
	}
}

// All returns an iterator over the remaining lines. Iteration stops at the
// start of the stream, at the first error (which is yielded), or when the
// loop body breaks; no read happens after a break.
func (r *Reader) All(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			line, err := r.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// fill prepends the previous block of the stream to the pending buffer.
func (r *Reader) fill() error {
	block, err := r.cursor.fetchPrevious()
	if err != nil {
		r.metrics.observeError()
		level.Debug(r.logger).Log("msg", "block fetch failed", "offset", r.cursor.pos, "err", err)
		return err
	}

	if len(r.pending) == 0 {
		r.pending = block
	} else {
		buf := make([]byte, len(block)+len(r.pending))
		copy(buf, block)
		copy(buf[len(block):], r.pending)
		r.pending = buf
	}

	r.metrics.observeBlock(len(block), len(r.pending))
	level.Debug(r.logger).Log("msg", "fetched block", "offset", r.cursor.pos, "bytes", len(block), "pending", len(r.pending))
	return nil
}

// emit copies a resolved segment out of the pending buffer, dropping the CR of
// a CR LF terminator.
func (r *Reader) emit(segment []byte, terminated bool) []byte {
	if terminated && len(segment) > 0 && segment[len(segment)-1] == '\r' {
		segment = segment[:len(segment)-1]
	}
	r.metrics.observeLine()
	line := make([]byte, len(segment))
	copy(line, segment)
	return line
}
