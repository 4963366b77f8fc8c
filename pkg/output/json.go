package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the report as JSON with log lines written verbatim, so
// <, > and & are not escaped. Quiet mode writes only the summary.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	var v any = report
	if f.opts.Quiet {
		v = report.Summary
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s report: %w", f.Name(), err)
	}
	return nil
}
