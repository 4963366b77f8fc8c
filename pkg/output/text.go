package output

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ccollicutt/revlog/pkg/search"
)

const timeLayout = "2006-01-02 15:04:05"

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		_, err := fmt.Fprintf(w, "revlog: %d queries run, %d found, %d missing\n",
			report.Summary.QueriesRun,
			report.Summary.QueriesFound,
			report.Summary.QueriesMissing)
		return err
	}

	ew := &errWriter{w: w}

	ew.println("=== revlog Search Report ===")
	ew.println()

	for _, result := range report.Results {
		f.formatQuery(ew, result, report.Metadata.SearchedAt)
	}

	ew.println("---")
	ew.printf("Summary: %d queries run, %d found, %d missing\n",
		report.Summary.QueriesRun,
		report.Summary.QueriesFound,
		report.Summary.QueriesMissing)

	if f.opts.Verbose {
		ew.printf("Lines scanned: %d", report.Summary.LinesScanned)
		if report.Metadata.StoppedEarly {
			ew.printf(" (stopped early)")
		}
		ew.println()
		ew.printf("Duration: %s\n", report.Metadata.Duration.Round(time.Millisecond))
	}

	return ew.err
}

func (f *TextFormatter) formatQuery(ew *errWriter, result *search.QueryResult, now time.Time) {
	ew.printf("[%s] %s\n", status(result), result.Name)

	if result.Description != "" && f.opts.Verbose {
		ew.printf("  %s\n", result.Description)
	}

	latest := result.Latest()
	if latest == nil {
		ew.printf("  No match for /%s/", result.Pattern)
		if !result.Stats.Cutoff.IsZero() {
			ew.printf(" since %s", result.Stats.Cutoff.Format(timeLayout))
		}
		ew.println()
		ew.println()
		return
	}

	matches := result.Matches
	if !f.opts.Verbose {
		matches = matches[:1]
	}
	for _, m := range matches {
		f.formatMatch(ew, m, now)
	}

	if f.opts.Verbose {
		ew.printf("  Scanned %d line(s), stopped by %s\n", result.Stats.LinesScanned, result.Stats.StoppedBy)
	}
	ew.println()
}

func (f *TextFormatter) formatMatch(ew *errWriter, m search.Match, now time.Time) {
	if m.HasTimestamp {
		ew.printf("  - %s (%s ago)\n", m.Timestamp.Format(timeLayout), m.Age(now).Round(time.Second))
	} else {
		ew.println("  - (no timestamp)")
	}
	ew.printf("    %s\n", m.Line)

	if f.opts.Verbose {
		ew.printf("    Source: %s, line %d from end\n", m.Source, m.LineFromEnd)
	}
}

func status(r *search.QueryResult) string {
	if r.Found {
		return "FOUND"
	}
	return "MISSING"
}

// errWriter stops writing after the first error and keeps it.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, args...)
}
