// Package search finds the most recent log entries matching configured queries.
package search

import (
	"time"
)

// Match is one line that satisfied a query.
type Match struct {
	Line         string    `json:"line"`
	Timestamp    time.Time `json:"timestamp,omitempty"`
	HasTimestamp bool      `json:"has_timestamp"`
	Source       string    `json:"source"`
	LineFromEnd  int       `json:"line_from_end"`
}

// Age returns how long before now the match was logged. Matches without
// their own timestamp report zero.
func (m Match) Age(now time.Time) time.Duration {
	if !m.HasTimestamp {
		return 0
	}
	return now.Sub(m.Timestamp)
}

// StopReason records why a query stopped consuming lines.
type StopReason string

const (
	// StopLimit means the query collected its limit of matches.
	StopLimit StopReason = "limit"

	// StopCutoff means a line older than the query's cutoff was reached.
	StopCutoff StopReason = "cutoff"

	// StopExhausted means every line was scanned.
	StopExhausted StopReason = "exhausted"
)

// QueryResult holds the outcome of a single query.
type QueryResult struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Pattern     string  `json:"pattern"`
	Limit       int     `json:"limit"`
	Matches     []Match `json:"matches"`

	// Found is true when at least one line matched.
	Found bool `json:"found"`

	Stats QueryStats `json:"stats"`
}

// QueryStats contains execution statistics for a query.
type QueryStats struct {
	LinesScanned int        `json:"lines_scanned"`
	StoppedBy    StopReason `json:"stopped_by"`

	// Cutoff is the oldest timestamp the query looked at, zero if unbounded.
	Cutoff time.Time `json:"cutoff,omitempty"`
}

// Latest returns the most recent match, or nil when nothing matched.
func (r *QueryResult) Latest() *Match {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// Result is the outcome of running every query against a log source.
type Result struct {
	Results  []*QueryResult
	Metadata Metadata
}

// Metadata provides context about a search run.
type Metadata struct {
	// Sources lists the files lines were read from, in first-seen order.
	Sources []string

	// Since is the global lookback applied to every query, zero if none.
	Since time.Duration

	StartTime time.Time
	EndTime   time.Time

	// LinesScanned counts lines read from the source before the search stopped.
	LinesScanned int

	// StoppedEarly is true when the search ended before the source was exhausted.
	StoppedEarly bool
}

// QueriesMissing returns the number of queries that found no match.
func (r *Result) QueriesMissing() int {
	count := 0
	for _, q := range r.Results {
		if !q.Found {
			count++
		}
	}
	return count
}

// TotalMatches returns the number of matches across all queries.
func (r *Result) TotalMatches() int {
	total := 0
	for _, q := range r.Results {
		total += len(q.Matches)
	}
	return total
}
