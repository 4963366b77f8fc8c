package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/revlog/pkg/config"
	"github.com/ccollicutt/revlog/pkg/parser"
)

// now is replaced in tests.
var now = time.Now

// TailOptions holds command-line options for the tail command.
type TailOptions struct {
	Lines            int
	Chrono           bool
	Since            time.Duration
	ChunkSize        string
	Encoding         string
	TimestampPattern string
	TimestampLayout  string
}

// NewTailCommand creates the tail command.
func NewTailCommand() *cobra.Command {
	opts := &TailOptions{}

	cmd := &cobra.Command{
		Use:   "tail [flags] <file>...",
		Short: "Print the last lines of log files, newest first",
		Long: `Print the last lines of each file, reading from the end of the file.

Lines are printed newest first unless --chrono is given. With --since, lines
are read until the first one stamped earlier than the window; timestamps are
extracted with --timestamp-pattern and --timestamp-layout.

Example:
  revlog tail /var/log/app.log
  revlog tail -n 50 --chrono /var/log/app.log
  revlog tail --since 15m 'logs/**/*.log'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTail(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Lines, "lines", "n", 10, "Number of lines to print per file")
	cmd.Flags().BoolVar(&opts.Chrono, "chrono", false, "Print lines oldest first")
	cmd.Flags().DurationVar(&opts.Since, "since", 0, "Stop at lines logged before this window (e.g., 30m, 2h)")
	cmd.Flags().StringVar(&opts.ChunkSize, "chunk-size", "", "Bytes read per backward step (e.g., 4KB, 1MB)")
	cmd.Flags().StringVar(&opts.Encoding, "encoding", "", "Charset of the files (IANA name, e.g., ISO-8859-1)")
	cmd.Flags().StringVar(&opts.TimestampPattern, "timestamp-pattern", config.DefaultTimestampPattern, "Regex whose first group captures the timestamp")
	cmd.Flags().StringVar(&opts.TimestampLayout, "timestamp-layout", config.DefaultTimestampLayout, "Go time layout of the captured timestamp")

	return cmd
}

func runTail(cmd *cobra.Command, args []string, opts *TailOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Lines < 0 {
		return fmt.Errorf("invalid --lines %d: must not be negative", opts.Lines)
	}
	if opts.Since < 0 {
		return fmt.Errorf("invalid --since %s: must not be negative", opts.Since)
	}

	chunkSize, err := parseChunkSize(opts.ChunkSize)
	if err != nil {
		return err
	}

	sourceOpts := []parser.SourceOption{
		parser.WithReaderOptions(readerOptions(chunkSize)...),
	}

	var cutoff time.Time
	if opts.Since > 0 {
		tf := config.TimestampConfig{Pattern: opts.TimestampPattern, Layout: opts.TimestampLayout}
		if err := config.ValidateTimestampFormat(&tf); err != nil {
			return fmt.Errorf("timestamp format: %w", err)
		}
		sourceOpts = append(sourceOpts, parser.WithTimestamps(tf.CompiledPattern(), tf.Layout))
		cutoff = now().Add(-opts.Since)
	}

	if opts.Encoding != "" {
		dec, err := parser.NewDecoder(opts.Encoding)
		if err != nil {
			return fmt.Errorf("encoding: %w", err)
		}
		sourceOpts = append(sourceOpts, parser.WithDecoder(dec))
	}

	files, err := parser.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding file patterns: %w", err)
	}

	w := cmd.OutOrStdout()
	for i, file := range files {
		lines, err := tailFile(ctx, file, opts.Lines, cutoff, sourceOpts)
		if err != nil {
			return err
		}

		if len(files) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "==> %s <==\n", file)
		}

		if opts.Chrono {
			slices.Reverse(lines)
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}

	return nil
}

// tailFile returns up to n lines from the end of path, newest first,
// stopping early at the first timestamped line older than cutoff.
func tailFile(ctx context.Context, path string, n int, cutoff time.Time, opts []parser.SourceOption) ([]string, error) {
	if n == 0 {
		return nil, nil
	}

	source := newSource([]string{path}, opts...)
	defer source.Close()

	lines := make([]string, 0, n)
	for len(lines) < n {
		line, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !cutoff.IsZero() && line.HasTimestamp && line.Timestamp.Before(cutoff) {
			break
		}
		lines = append(lines, line.Raw)
	}
	return lines, nil
}
