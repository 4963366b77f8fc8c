package revlines

import (
	"context"
	"io"
)

// Last returns up to n lines from the end of rs, newest first. It reads only
// as far back as needed to produce them.
func Last(ctx context.Context, rs io.ReadSeeker, n int, opts ...Option) ([][]byte, error) {
	if n <= 0 {
		return nil, nil
	}

	r, err := New(rs, opts...)
	if err != nil {
		return nil, err
	}

	lines := make([][]byte, 0, n)
	for line, err := range r.All(ctx) {
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines, nil
}
