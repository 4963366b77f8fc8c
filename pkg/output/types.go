// Package output provides formatting and output generation for search results.
package output

import (
	"time"

	"github.com/ccollicutt/revlog/pkg/search"
)

// Report is the complete search output.
type Report struct {
	Summary  Summary               `json:"summary"`
	Results  []*search.QueryResult `json:"results"`
	Metadata Metadata              `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	QueriesRun     int `json:"queries_run"`
	QueriesFound   int `json:"queries_found"`
	QueriesMissing int `json:"queries_missing"`
	TotalMatches   int `json:"total_matches"`

	// LinesScanned is how many lines were read before the search stopped.
	LinesScanned int `json:"lines_scanned"`
}

// Metadata provides context about the search run.
type Metadata struct {
	ConfigFile   string        `json:"config_file,omitempty"`
	Sources      []string      `json:"sources"`
	Since        time.Duration `json:"since,omitempty"`
	SearchedAt   time.Time     `json:"searched_at"`
	Duration     time.Duration `json:"duration"`
	StoppedEarly bool          `json:"stopped_early"`
}

// NewReport creates a Report from a search result.
func NewReport(result *search.Result, configFile string) *Report {
	missing := result.QueriesMissing()

	return &Report{
		Results: result.Results,
		Summary: Summary{
			QueriesRun:     len(result.Results),
			QueriesFound:   len(result.Results) - missing,
			QueriesMissing: missing,
			TotalMatches:   result.TotalMatches(),
			LinesScanned:   result.Metadata.LinesScanned,
		},
		Metadata: Metadata{
			ConfigFile:   configFile,
			Sources:      result.Metadata.Sources,
			Since:        result.Metadata.Since,
			SearchedAt:   result.Metadata.StartTime,
			Duration:     result.Metadata.EndTime.Sub(result.Metadata.StartTime),
			StoppedEarly: result.Metadata.StoppedEarly,
		},
	}
}

// HasMissing returns true if any query found no match.
func (r *Report) HasMissing() bool {
	return r.Summary.QueriesMissing > 0
}
