package revlines

import "github.com/go-kit/log"

// DefaultChunkSize is the number of bytes read per backward step.
const DefaultChunkSize = 4096

// Option configures a Reader.
type Option func(*Reader)

// WithChunkSize sets how many bytes are read per backward step. Larger chunks
// mean fewer reads and a larger pending buffer. Non-positive values are
// ignored.
func WithChunkSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// WithLogger sets the logger used for debug output about block fetches.
func WithLogger(logger log.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records read activity on m. The same Metrics may be shared by
// many readers.
func WithMetrics(m *Metrics) Option {
	return func(r *Reader) {
		r.metrics = m
	}
}
