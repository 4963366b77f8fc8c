// Package parser reads log files newest first and extracts their timestamps.
package parser

import "time"

// ParsedLine represents a single log line with extracted metadata.
type ParsedLine struct {
	// Raw is the line content without its terminator, decoded to UTF-8 when
	// a charset decoder is configured.
	Raw string

	// Timestamp is the line's own timestamp when HasTimestamp is true.
	// Otherwise it is the timestamp of the nearest newer stamped line in
	// the same file, or the zero time if there is none.
	Timestamp time.Time

	// HasTimestamp reports whether Timestamp was parsed from this line.
	HasTimestamp bool

	// Source is the file path this line came from.
	Source string

	// LineFromEnd is the 1-based position of the line counted from the end
	// of its file.
	LineFromEnd int
}
