package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Pseudo layouts for numeric epoch timestamps.
const (
	LayoutUnixSeconds = "UNIX_SECONDS"
	LayoutUnixMillis  = "UNIX_MILLIS"
)

// maxUnixSeconds is 2100-01-01; larger values are not plausible timestamps.
const maxUnixSeconds = 4102444800

var errNoTimestamp = errors.New("timestamp pattern did not match")

// TimestampExtractor extracts and parses timestamps from log lines.
type TimestampExtractor struct {
	pattern *regexp.Regexp
	layout  string
}

// NewTimestampExtractor creates a new timestamp extractor.
func NewTimestampExtractor(pattern *regexp.Regexp, layout string) *TimestampExtractor {
	return &TimestampExtractor{
		pattern: pattern,
		layout:  layout,
	}
}

// Extract finds the first capture group of the pattern in line and parses it
// with the extractor's layout.
func (e *TimestampExtractor) Extract(line string) (time.Time, error) {
	matches := e.pattern.FindStringSubmatch(line)
	if len(matches) < 2 {
		return time.Time{}, errNoTimestamp
	}

	ts, err := ParseTimestamp(matches[1], e.layout)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", matches[1], err)
	}
	return ts, nil
}

// ParseTimestamp parses s with a Go time layout or one of the epoch pseudo
// layouts.
func ParseTimestamp(s, layout string) (time.Time, error) {
	switch layout {
	case LayoutUnixSeconds:
		secs, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		if secs < 0 || secs > maxUnixSeconds {
			return time.Time{}, fmt.Errorf("epoch seconds %d out of range", secs)
		}
		return time.Unix(secs, 0).UTC(), nil

	case LayoutUnixMillis:
		millis, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		if millis < 0 || millis/1000 > maxUnixSeconds {
			return time.Time{}, fmt.Errorf("epoch milliseconds %d out of range", millis)
		}
		return time.UnixMilli(millis).UTC(), nil

	default:
		return time.Parse(layout, s)
	}
}
