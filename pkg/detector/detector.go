// Package detector guesses the timestamp format of a log file from its
// newest lines.
package detector

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ccollicutt/revlog/pkg/config"
	"github.com/ccollicutt/revlog/pkg/parser"
	"github.com/ccollicutt/revlog/pkg/revlines"
)

// DefaultSampleSize is how many lines are sampled when no size is given.
const DefaultSampleSize = 100

const ambiguityNote = "This format has date ordering ambiguity (MM/DD vs DD/MM). " +
	"Verify the layout matches your log format. " +
	`For European format (DD/MM/YYYY), use layout: "02/01/2006 15:04:05"`

// Result holds the outcome of a detection.
type Result struct {
	// Matches are sorted by confidence, highest first.
	Matches []Match

	// SampledLines counts the non-blank, non-comment lines examined.
	SampledLines int

	// ParsedLines counts lines parsed by the best match.
	ParsedLines int

	AmbiguityNote string
}

// Match is a format that parsed at least one sampled line.
type Match struct {
	Format     *Format
	Confidence float64 // share of sampled lines parsed, 0.0 to 1.0
	MatchCount int

	// SampleLine is the newest line the format parsed.
	SampleLine string

	// Newest is the latest timestamp the format parsed.
	Newest time.Time
}

// TimestampConfig returns the configuration block for the match.
func (m *Match) TimestampConfig() config.TimestampConfig {
	return config.TimestampConfig{
		Pattern: m.Format.PatternStr,
		Layout:  m.Format.Layout,
	}
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *Result) BestMatch() *Match {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one format matched.
func (r *Result) HasMatch() bool {
	return len(r.Matches) > 0
}

// Detector samples the end of a log and ranks known timestamp formats.
type Detector struct {
	formats    []*Format
	sampleSize int
	readerOpts []revlines.Option
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample.
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithReaderOptions configures the reverse reader used for sampling.
func WithReaderOptions(opts ...revlines.Option) Option {
	return func(d *Detector) {
		d.readerOpts = append(d.readerOpts, opts...)
	}
}

// New creates a Detector with the built-in formats.
func New(opts ...Option) *Detector {
	d := &Detector{
		formats:    DefaultFormats(),
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFile samples the newest lines of the file at path.
func (d *Detector) DetectFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path) // #nosec G304 -- path is provided by the user
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := d.Sample(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("sampling %s: %w", path, err)
	}
	return d.Detect(lines), nil
}

// Sample returns up to the sample size of the newest non-blank, non-comment
// lines of rs, newest first. Reading stops once the sample is full.
func (d *Detector) Sample(ctx context.Context, rs io.ReadSeeker) ([]string, error) {
	r, err := revlines.New(rs, d.readerOpts...)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, d.sampleSize)
	for raw, err := range r.All(ctx) {
		if err != nil {
			return nil, err
		}
		if skipLine(string(raw)) {
			continue
		}
		lines = append(lines, string(raw))
		if len(lines) == d.sampleSize {
			break
		}
	}
	return lines, nil
}

// Detect ranks formats by the share of lines they parse.
func (d *Detector) Detect(lines []string) *Result {
	result := &Result{}

	counts := make([]Match, len(d.formats))
	for i, f := range d.formats {
		counts[i].Format = f
	}

	for _, line := range lines {
		if skipLine(line) {
			continue
		}
		result.SampledLines++
		line = strings.TrimSpace(line)

		for i, f := range d.formats {
			m := f.Pattern.FindStringSubmatch(line)
			if len(m) < 2 {
				continue
			}
			ts, err := parser.ParseTimestamp(m[1], f.Layout)
			if err != nil {
				continue
			}

			c := &counts[i]
			if c.MatchCount == 0 {
				c.SampleLine = line
				c.Newest = ts
			} else if ts.After(c.Newest) {
				c.Newest = ts
			}
			c.MatchCount++
		}
	}

	for _, c := range counts {
		if c.MatchCount == 0 {
			continue
		}
		c.Confidence = float64(c.MatchCount) / float64(result.SampledLines)
		result.Matches = append(result.Matches, c)
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Confidence > result.Matches[j].Confidence
	})

	if best := result.BestMatch(); best != nil {
		result.ParsedLines = best.MatchCount
		if best.Format.Ambiguous {
			result.AmbiguityNote = ambiguityNote
		}
	}

	return result
}

func skipLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}
