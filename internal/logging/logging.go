// Package logging builds the structured logger shared by the CLI commands.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Supported log formats.
const (
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
)

// New returns a logger writing to w in the given format, dropping records
// below lvl. Every record carries a UTC timestamp.
func New(w io.Writer, lvl, format string) (log.Logger, error) {
	var logger log.Logger
	switch strings.ToLower(format) {
	case "", FormatLogfmt:
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case FormatJSON:
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("unknown log format %q (use logfmt or json)", format)
	}

	filter, err := levelFilter(lvl)
	if err != nil {
		return nil, err
	}

	logger = level.NewFilter(logger, filter)
	return log.With(logger, "ts", log.DefaultTimestampUTC), nil
}

func levelFilter(lvl string) (level.Option, error) {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	default:
		return nil, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", lvl)
	}
}
