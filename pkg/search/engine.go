package search

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ccollicutt/revlog/pkg/config"
	"github.com/ccollicutt/revlog/pkg/parser"
)

// QueryEngine consumes lines newest first and keeps the matches for one query.
type QueryEngine struct {
	name        string
	description string
	pattern     *regexp.Regexp
	limit       int
	cutoff      time.Time

	matches []Match
	stats   QueryStats
	done    bool
}

// NewQueryEngine creates an engine from a validated query config. A non-zero
// cutoff ends the query at the first timestamped line older than it.
func NewQueryEngine(q *config.QueryConfig, cutoff time.Time) (*QueryEngine, error) {
	pattern := q.CompiledPattern()
	if pattern == nil {
		return nil, fmt.Errorf("query %q has uncompiled pattern", q.Name)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = config.DefaultQueryLimit
	}

	e := &QueryEngine{
		name:        q.Name,
		description: q.Description,
		pattern:     pattern,
		limit:       limit,
		cutoff:      cutoff,
	}
	e.Reset()
	return e, nil
}

// Name returns the query name.
func (e *QueryEngine) Name() string {
	return e.name
}

// Done reports whether the engine needs no more lines.
func (e *QueryEngine) Done() bool {
	return e.done
}

// Process handles one line and reports whether the engine is now done.
func (e *QueryEngine) Process(line *parser.ParsedLine) bool {
	if e.done {
		return true
	}

	if !e.cutoff.IsZero() && line.HasTimestamp && line.Timestamp.Before(e.cutoff) {
		e.finish(StopCutoff)
		return true
	}

	e.stats.LinesScanned++

	if !e.pattern.MatchString(line.Raw) {
		return false
	}

	e.matches = append(e.matches, Match{
		Line:         line.Raw,
		Timestamp:    line.Timestamp,
		HasTimestamp: line.HasTimestamp,
		Source:       line.Source,
		LineFromEnd:  line.LineFromEnd,
	})

	if len(e.matches) >= e.limit {
		e.finish(StopLimit)
	}
	return e.done
}

// Finalize returns the query result. Engines still running when the source
// ran out are marked exhausted.
func (e *QueryEngine) Finalize() *QueryResult {
	if !e.done {
		e.finish(StopExhausted)
	}

	return &QueryResult{
		Name:        e.name,
		Description: e.description,
		Pattern:     e.pattern.String(),
		Limit:       e.limit,
		Matches:     e.matches,
		Found:       len(e.matches) > 0,
		Stats:       e.stats,
	}
}

// Reset clears state for reuse.
func (e *QueryEngine) Reset() {
	e.matches = make([]Match, 0, e.limit)
	e.stats = QueryStats{Cutoff: e.cutoff}
	e.done = false
}

func (e *QueryEngine) finish(reason StopReason) {
	e.done = true
	e.stats.StoppedBy = reason
}
