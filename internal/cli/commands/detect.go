package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/revlog/pkg/config"
	"github.com/ccollicutt/revlog/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
	ChunkSize   string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect timestamp format in a log file",
		Long: `Detect the timestamp format of a log file from its newest lines.

The file is sampled from the end, so the result reflects what the
application logs today rather than an old header. Prints the best format with
a confidence score and a timestamp_format block ready for the config file.

Example:
  revlog detect /var/log/myapp.log
  revlog detect --sample 500 /var/log/large.log
  revlog detect -w revlog.yaml /var/log/app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample from the end")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all detected formats, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")
	cmd.Flags().StringVar(&opts.ChunkSize, "chunk-size", "", "Bytes read per backward step (e.g., 4KB, 1MB)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	chunkSize, err := parseChunkSize(opts.ChunkSize)
	if err != nil {
		return err
	}

	d := detector.New(
		detector.WithSampleSize(opts.SampleSize),
		detector.WithReaderOptions(readerOptions(chunkSize)...),
	)

	result, err := d.DetectFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	w := cmd.OutOrStdout()

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(result, logFile, opts.WriteConfig); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote starter config to: %s\n\n", opts.WriteConfig)
	}

	if opts.Output == "json" {
		return outputDetectJSON(w, result, logFile, opts)
	}
	return outputDetectText(w, result, logFile, opts)
}

func outputDetectText(w io.Writer, result *detector.Result, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Timestamp Format Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled (newest first): %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines with timestamps: %d\n", result.ParsedLines)
	fmt.Fprintln(w)

	best := result.BestMatch()
	if best == nil {
		fmt.Fprintln(w, "No timestamp format detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: The file may use an uncommon format.")
		fmt.Fprintln(w, "Check the last few lines manually to identify the timestamp pattern.")
		return nil
	}

	fmt.Fprintf(w, "Detected Format: %s\n", best.Format.Name)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines matched)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Newest match:\n  %s\n", best.SampleLine)
	fmt.Fprintf(w, "Newest timestamp: %s\n", best.Newest.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(w)

	if result.AmbiguityNote != "" {
		fmt.Fprintf(w, "WARNING: %s\n", result.AmbiguityNote)
		fmt.Fprintln(w)
	}

	snippet, err := yaml.Marshal(map[string]config.TimestampConfig{
		"timestamp_format": best.TimestampConfig(),
	})
	if err != nil {
		return fmt.Errorf("rendering snippet: %w", err)
	}
	fmt.Fprintln(w, "--- Configuration snippet (copy to your config file) ---")
	fmt.Fprintln(w)
	fmt.Fprint(w, string(snippet))
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative formats detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence)\n", i+2, m.Format.Name, m.Confidence*100)
			fmt.Fprintf(w, "   pattern: '%s'\n", m.Format.PatternStr)
			fmt.Fprintf(w, "   layout: %q\n", m.Format.Layout)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// DetectMatch represents a format match in JSON output.
type DetectMatch struct {
	Name       string  `json:"name"`
	Pattern    string  `json:"pattern"`
	Layout     string  `json:"layout"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleLine string  `json:"sample_line"`
	Newest     string  `json:"newest"`
	Ambiguous  bool    `json:"ambiguous,omitempty"`
}

// DetectOutput represents the full JSON output.
type DetectOutput struct {
	File          string        `json:"file"`
	Matches       []DetectMatch `json:"matches"`
	SampledLines  int           `json:"sampled_lines"`
	ParsedLines   int           `json:"parsed_lines"`
	AmbiguityNote string        `json:"ambiguity_note,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.Result, logFile string, opts *DetectOptions) error {
	out := DetectOutput{
		File:          logFile,
		SampledLines:  result.SampledLines,
		ParsedLines:   result.ParsedLines,
		AmbiguityNote: result.AmbiguityNote,
		Matches:       make([]DetectMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, DetectMatch{
			Name:       m.Format.Name,
			Pattern:    m.Format.PatternStr,
			Layout:     m.Format.Layout,
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleLine: m.SampleLine,
			Newest:     m.Newest.Format("2006-01-02T15:04:05Z07:00"),
			Ambiguous:  m.Format.Ambiguous,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

const starterHeader = `# revlog configuration
# Generated by: revlog detect
# Detected format: %s (%.0f%% confidence)
#
# Each query reports the most recent lines matching its pattern.
#   limit:  how many recent matches to keep (default 1)
#   within: ignore matches older than this, e.g. 24h

`

// writeStarterConfig generates a starter config file with the detected format.
func writeStarterConfig(result *detector.Result, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	best := result.BestMatch()
	if best == nil {
		return fmt.Errorf("cannot generate config: no timestamp format detected")
	}

	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	starter := config.Config{
		LogSources:      []string{absLogFile},
		TimestampFormat: best.TimestampConfig(),
		ChunkSize:       config.DefaultChunkSize,
		Queries: []config.QueryConfig{{
			Name:        "last-error",
			Description: "Most recent error",
			Pattern:     `ERROR|FATAL`,
		}},
	}

	body, err := yaml.Marshal(&starter)
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}

	content := fmt.Sprintf(starterHeader, best.Format.Name, best.Confidence*100) + string(body)

	// #nosec G306 -- config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
