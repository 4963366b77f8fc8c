package commands

import (
	"fmt"
	"io"

	"github.com/c2h5oh/datasize"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ccollicutt/revlog/internal/logging"
	"github.com/ccollicutt/revlog/pkg/config"
	"github.com/ccollicutt/revlog/pkg/parser"
	"github.com/ccollicutt/revlog/pkg/revlines"
)

// ExitCode is set by commands to indicate the result.
var ExitCode = 0

// GlobalOptions holds flags shared by every command.
type GlobalOptions struct {
	LogLevel    string
	LogFormat   string
	MetricsFile string
}

// Globals are bound to the root command's persistent flags.
var Globals = GlobalOptions{
	LogLevel:  "info",
	LogFormat: logging.FormatLogfmt,
}

var (
	logger   log.Logger = log.NewNopLogger()
	registry *prometheus.Registry
	metrics  *revlines.Metrics
)

// Setup builds the logger and metrics registry from Globals. Commands run
// without Setup log nothing and record no metrics.
func Setup(stderr io.Writer) error {
	l, err := logging.New(stderr, Globals.LogLevel, Globals.LogFormat)
	if err != nil {
		return err
	}
	logger = l

	if Globals.MetricsFile != "" {
		registry = prometheus.NewRegistry()
		metrics = revlines.NewMetrics(registry)
	}
	return nil
}

// WriteMetrics writes the collected metrics in the Prometheus text format
// when --metrics-file is set.
func WriteMetrics() error {
	if registry == nil || Globals.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(Globals.MetricsFile, registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// readerOptions returns the revlines options every command shares.
func readerOptions(chunkSize int) []revlines.Option {
	opts := []revlines.Option{revlines.WithLogger(logger)}
	if chunkSize > 0 {
		opts = append(opts, revlines.WithChunkSize(chunkSize))
	}
	if metrics != nil {
		opts = append(opts, revlines.WithMetrics(metrics))
	}
	return opts
}

// parseChunkSize parses a human byte size such as 4KB or 1MB. Empty means
// the reader default.
func parseChunkSize(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	size, err := datasize.ParseString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid chunk size %q: %w", s, err)
	}
	if size == 0 || size > config.MaxChunkSize {
		return 0, fmt.Errorf("chunk size %s must be between 1B and %s", size, config.MaxChunkSize)
	}
	return int(size.Bytes()), nil
}

// newSource opens files newest line first. Several files are merged by
// timestamp.
func newSource(files []string, opts ...parser.SourceOption) parser.LogSource {
	opts = append(opts, parser.WithSourceLogger(logger))
	if len(files) == 1 {
		return parser.NewReverseFileSource(files, opts...)
	}

	sources := make([]parser.LogSource, len(files))
	for i, file := range files {
		sources[i] = parser.NewReverseFileSource([]string{file}, opts...)
	}
	return parser.NewMergedSource(sources...)
}
