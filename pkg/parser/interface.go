package parser

import "context"

// LogSource provides an iterator over parsed log lines, newest first.
// Implementations must be safe for sequential access (not concurrent).
type LogSource interface {
	// Next returns the next parsed log line, moving back in time.
	// Returns io.EOF when no more lines are available.
	Next(ctx context.Context) (*ParsedLine, error)

	// Close releases any resources held by the source.
	Close() error
}
