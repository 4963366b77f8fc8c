package search

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ccollicutt/revlog/pkg/config"
	"github.com/ccollicutt/revlog/pkg/parser"
)

// Searcher runs configured queries against a newest-first log source.
type Searcher struct {
	queries []*config.QueryConfig

	since  time.Duration
	now    func() time.Time
	logger log.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithSince bounds every query to lines logged in the last d.
func WithSince(d time.Duration) Option {
	return func(s *Searcher) {
		if d > 0 {
			s.since = d
		}
	}
}

// WithClock sets the time source used to compute cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *Searcher) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSearcher creates a searcher for the queries in cfg. When names is not
// empty only those queries run.
func NewSearcher(cfg *config.Config, names []string, opts ...Option) (*Searcher, error) {
	s := &Searcher{
		now:    time.Now,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var filter map[string]bool
	if len(names) > 0 {
		filter = make(map[string]bool, len(names))
		for _, n := range names {
			filter[n] = true
		}
	}

	for i := range cfg.Queries {
		q := &cfg.Queries[i]
		if filter != nil && !filter[q.Name] {
			continue
		}
		if q.CompiledPattern() == nil {
			return nil, fmt.Errorf("query %q has uncompiled pattern", q.Name)
		}
		s.queries = append(s.queries, q)
	}

	if len(s.queries) == 0 {
		return nil, fmt.Errorf("no queries to run (check --query filter)")
	}

	return s, nil
}

// Search reads lines from source until every query is done or the source is
// exhausted. The source is not closed.
func (s *Searcher) Search(ctx context.Context, source parser.LogSource) (*Result, error) {
	start := s.now()
	engines := make([]*QueryEngine, 0, len(s.queries))
	for _, q := range s.queries {
		engine, err := NewQueryEngine(q, s.cutoff(start, q.Within))
		if err != nil {
			return nil, err
		}
		engines = append(engines, engine)
	}

	result := &Result{
		Results: make([]*QueryResult, 0, len(engines)),
		Metadata: Metadata{
			Since:     s.since,
			StartTime: start,
		},
	}

	seen := make(map[string]bool)
	remaining := len(engines)

	for remaining > 0 {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log source: %w", err)
		}

		if !seen[line.Source] {
			seen[line.Source] = true
			result.Metadata.Sources = append(result.Metadata.Sources, line.Source)
		}
		result.Metadata.LinesScanned++

		for _, engine := range engines {
			if engine.Done() {
				continue
			}
			if engine.Process(line) {
				remaining--
				level.Debug(s.logger).Log("msg", "query done", "query", engine.Name(), "lines", result.Metadata.LinesScanned)
			}
		}
	}
	result.Metadata.StoppedEarly = remaining == 0

	for _, engine := range engines {
		result.Results = append(result.Results, engine.Finalize())
	}
	result.Metadata.EndTime = s.now()

	level.Info(s.logger).Log(
		"msg", "search complete",
		"queries", len(engines),
		"missing", result.QueriesMissing(),
		"lines", result.Metadata.LinesScanned,
		"stopped_early", result.Metadata.StoppedEarly,
	)

	return result, nil
}

// cutoff returns the tighter of the query's own lookback and the global one.
func (s *Searcher) cutoff(now time.Time, within time.Duration) time.Time {
	var cutoff time.Time
	if within > 0 {
		cutoff = now.Add(-within)
	}
	if s.since > 0 {
		if global := now.Add(-s.since); global.After(cutoff) {
			cutoff = global
		}
	}
	return cutoff
}
