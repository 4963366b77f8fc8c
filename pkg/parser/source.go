package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ccollicutt/revlog/pkg/revlines"
)

// ReverseFileSource implements LogSource by reading files from their last
// line to their first. Files are visited in the order given.
type ReverseFileSource struct {
	files       []string
	extractor   *TimestampExtractor
	decoder     *Decoder
	readerOpts  []revlines.Option
	logger      log.Logger
	keepUntimed bool

	currentFile   *os.File
	currentReader *revlines.Reader
	currentSource string
	currentLine   int
	lastTimestamp time.Time
	fileIndex     int
}

// SourceOption configures a ReverseFileSource.
type SourceOption func(*ReverseFileSource)

// WithTimestamps extracts a timestamp from every line using pattern's first
// capture group and layout.
func WithTimestamps(pattern *regexp.Regexp, layout string) SourceOption {
	return func(s *ReverseFileSource) {
		if pattern != nil {
			s.extractor = NewTimestampExtractor(pattern, layout)
		}
	}
}

// WithDecoder decodes every line to UTF-8 with d.
func WithDecoder(d *Decoder) SourceOption {
	return func(s *ReverseFileSource) {
		s.decoder = d
	}
}

// WithReaderOptions passes options to each underlying revlines.Reader.
func WithReaderOptions(opts ...revlines.Option) SourceOption {
	return func(s *ReverseFileSource) {
		s.readerOpts = append(s.readerOpts, opts...)
	}
}

// WithSourceLogger sets the logger used when files are opened and closed.
func WithSourceLogger(logger log.Logger) SourceOption {
	return func(s *ReverseFileSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUntimedLines controls whether lines without their own timestamp are
// returned when timestamps are extracted. They are returned by default;
// passing false skips them.
func WithUntimedLines(keep bool) SourceOption {
	return func(s *ReverseFileSource) {
		s.keepUntimed = keep
	}
}

// NewReverseFileSource creates a LogSource that reads the given files newest
// line first.
func NewReverseFileSource(files []string, opts ...SourceOption) *ReverseFileSource {
	s := &ReverseFileSource{
		files:       files,
		logger:      log.NewNopLogger(),
		keepUntimed: true,
		fileIndex:   -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next line moving towards the start of the current file,
// then on to the next file. Returns io.EOF when all files are exhausted.
func (s *ReverseFileSource) Next(ctx context.Context) (*ParsedLine, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentReader == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		raw, err := s.currentReader.Next(ctx)
		if err == nil {
			s.currentLine++
			line, err := s.parse(raw)
			if err != nil {
				return nil, err
			}
			if line == nil {
				continue
			}
			return line, nil
		}
		if err != io.EOF {
			return nil, fmt.Errorf("reading %s: %w", s.currentSource, err)
		}

		if err := s.closeCurrentFile(); err != nil {
			return nil, err
		}
	}
}

// Close releases resources.
func (s *ReverseFileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *ReverseFileSource) parse(raw []byte) (*ParsedLine, error) {
	text, err := s.decoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: line %d from end: %w", s.currentSource, s.currentLine, err)
	}

	line := &ParsedLine{
		Raw:         text,
		Source:      s.currentSource,
		LineFromEnd: s.currentLine,
	}

	if s.extractor == nil {
		return line, nil
	}

	if ts, err := s.extractor.Extract(text); err == nil {
		s.lastTimestamp = ts
		line.Timestamp = ts
		line.HasTimestamp = true
		return line, nil
	}

	if !s.keepUntimed {
		return nil, nil
	}
	line.Timestamp = s.lastTimestamp
	return line, nil
}

func (s *ReverseFileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	r, err := revlines.New(f, s.readerOpts...)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	s.currentFile = f
	s.currentReader = r
	s.currentSource = path
	s.currentLine = 0
	s.lastTimestamp = time.Time{}

	level.Debug(s.logger).Log("msg", "opened log file", "path", path, "size", r.Size())
	return nil
}

func (s *ReverseFileSource) closeCurrentFile() error {
	if s.currentFile == nil {
		return nil
	}

	level.Debug(s.logger).Log("msg", "closing log file", "path", s.currentSource, "lines", s.currentLine)
	err := s.currentFile.Close()
	s.currentFile = nil
	s.currentReader = nil
	return err
}
