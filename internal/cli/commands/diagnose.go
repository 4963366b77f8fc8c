package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/revlog/pkg/config"
	"github.com/ccollicutt/revlog/pkg/detector"
	"github.com/ccollicutt/revlog/pkg/parser"
	"github.com/ccollicutt/revlog/pkg/revlines"
)

// diagnoseSampleLines is how many lines from the end of a log are tested
// against the timestamp pattern.
const diagnoseSampleLines = 20

// DiagnoseOptions holds options for the diagnose command.
type DiagnoseOptions struct {
	Verbose bool
}

// CheckStatus is the outcome of a diagnostic check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// DiagnosticResult represents the result of a single diagnostic check.
type DiagnosticResult struct {
	Check    string
	Status   CheckStatus
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command.
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

Checks:
  - Config file syntax and validity
  - Log source existence and accessibility
  - Timestamp format against the newest lines of the first log file
  - Webhook settings (and connectivity with --verbose)

Example:
  revlog diagnose revlog.yaml
  revlog diagnose -v revlog.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			results := runDiagnose(ctx, args[0], opts)
			printDiagnostics(cmd.OutOrStdout(), results, opts)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, configPath string, opts *DiagnoseOptions) []DiagnosticResult {
	result := checkConfigExists(configPath)
	if result.Status == StatusFail {
		return []DiagnosticResult{result}
	}
	results := []DiagnosticResult{result}

	cfg, result := checkConfigValid(ctx, configPath)
	results = append(results, result)
	if cfg == nil {
		return results
	}

	files, sourceResults := checkLogSources(cfg)
	results = append(results, sourceResults...)

	if len(files) > 0 {
		results = append(results, checkTimestampFormat(ctx, cfg, files[0], opts))
	}

	results = append(results, checkWebhooks(ctx, cfg, opts)...)
	return results
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{Check: "Config File"}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusFail
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'revlog detect -w revlog.yaml <log-file>' to generate a starter config",
		}
	case err != nil:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
	case info.IsDir():
		result.Status = StatusFail
		result.Message = "Path is a directory, not a file"
	case info.Size() == 0:
		result.Status = StatusFail
		result.Message = "Config file is empty"
	default:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	}
	return result
}

func checkConfigValid(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{Check: "Config Syntax"}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("Invalid config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{"Check YAML syntax: indent with spaces, not tabs"}
		}
		return nil, result
	}

	result.Status = StatusPass
	result.Message = "Config file parsed and validated"
	result.Details = []string{
		fmt.Sprintf("Log sources: %d", len(cfg.LogSources)),
		fmt.Sprintf("Queries: %d", len(cfg.Queries)),
		fmt.Sprintf("Chunk size: %s", cfg.ChunkSize),
	}
	return cfg, result
}

// checkLogSources reports on each configured source and returns every
// readable file.
func checkLogSources(cfg *config.Config) ([]string, []DiagnosticResult) {
	var (
		results []DiagnosticResult
		files   []string
	)

	for _, source := range cfg.LogSources {
		result := DiagnosticResult{Check: fmt.Sprintf("Log Source: %s", source)}

		matched, err := parser.ExpandGlobs([]string{source})
		if err != nil {
			result.Status = StatusFail
			result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			results = append(results, result)
			continue
		}

		var readable, empty []string
		var problems []string
		for _, f := range matched {
			info, err := os.Stat(f)
			switch {
			case err != nil:
				problems = append(problems, fmt.Sprintf("%s: %v", f, err))
			case info.IsDir():
				problems = append(problems, fmt.Sprintf("%s: is a directory", f))
			case info.Size() == 0:
				empty = append(empty, f)
				readable = append(readable, f)
			default:
				readable = append(readable, f)
			}
		}
		files = append(files, readable...)

		switch {
		case len(readable) == 0:
			result.Status = StatusFail
			result.Message = "No readable files"
			result.Details = problems
			result.Suggests = []string{"Check the path or glob pattern; '**' matches nested directories"}
		case len(problems) > 0 || len(empty) == len(readable):
			result.Status = StatusWarn
			result.Message = fmt.Sprintf("%d readable file(s), %d empty, %d problem(s)", len(readable), len(empty), len(problems))
			result.Details = problems
		default:
			result.Status = StatusPass
			result.Message = fmt.Sprintf("Matches %d file(s)", len(readable))
			result.Details = readable
		}
		results = append(results, result)
	}

	if len(files) == 0 {
		results = append(results, DiagnosticResult{
			Check:    "Log Files Summary",
			Status:   StatusFail,
			Message:  "No accessible log files found",
			Suggests: []string{"Ensure at least one log file exists and is readable"},
		})
	}

	return files, results
}

// checkTimestampFormat tests the pattern against the newest lines of file,
// which is where a search spends its time.
func checkTimestampFormat(ctx context.Context, cfg *config.Config, file string, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{Check: fmt.Sprintf("Timestamp Test: %s", filepath.Base(file))}

	f, err := os.Open(file) // #nosec G304 -- user-provided log paths from config
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return result
	}
	defer f.Close()

	raw, err := revlines.Last(ctx, f, diagnoseSampleLines, readerOptions(cfg.ChunkBytes())...)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return result
	}

	extractor := parser.NewTimestampExtractor(cfg.TimestampFormat.CompiledPattern(), cfg.TimestampFormat.Layout)

	var sampled, matched int
	var sampleMatch, sampleFail string
	for _, line := range raw {
		text := strings.TrimSpace(string(line))
		if text == "" {
			continue
		}
		sampled++
		if _, err := extractor.Extract(text); err == nil {
			matched++
			if sampleMatch == "" {
				sampleMatch = text
			}
		} else if sampleFail == "" {
			sampleFail = text
		}
	}

	switch {
	case sampled == 0:
		result.Status = StatusWarn
		result.Message = "File has no lines to test"
		return result
	case matched == 0:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("Pattern matches none of the newest %d lines", sampled)
		result.Suggests = []string{"Use 'revlog detect " + file + "' to find the correct pattern"}
	case matched*2 < sampled:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Pattern matches only %d/%d of the newest lines", matched, sampled)
	default:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("Pattern matches %d/%d of the newest lines", matched, sampled)
		if opts.Verbose {
			result.Details = []string{"Newest match:", truncate(sampleMatch, 80)}
		}
		return result
	}

	if sampleFail != "" {
		result.Details = []string{"Newest line that didn't match:", truncate(sampleFail, 80)}
	}

	if _, err := f.Seek(0, io.SeekStart); err == nil {
		d := detector.New(detector.WithSampleSize(diagnoseSampleLines))
		if lines, err := d.Sample(ctx, f); err == nil {
			if best := d.Detect(lines).BestMatch(); best != nil {
				result.Suggests = append(result.Suggests,
					fmt.Sprintf("Detected format: %s", best.Format.Name),
					fmt.Sprintf("Suggested pattern: %s", best.Format.PatternStr),
					fmt.Sprintf("Suggested layout: %s", best.Format.Layout),
				)
			}
		}
	}

	return result
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	var results []DiagnosticResult

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusPass,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  StatusPass,
			Message: fmt.Sprintf("Trigger: %s, timeout: %s", wh.Trigger, wh.Timeout),
		}

		if opts.Verbose {
			result.Details = []string{fmt.Sprintf("URL: %s", wh.URL)}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}
		if wh.Trigger == config.WebhookTriggerNever {
			result.Status = StatusWarn
			result.Message = "Trigger is never; this webhook is disabled"
		}

		results = append(results, result)

		if opts.Verbose {
			conn := checkWebhookConnectivity(ctx, wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	var result DiagnosticResult

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}
	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{"Check the webhook URL and network connectivity"}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 400 {
		result.Status = StatusPass
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{"The endpoint may only accept POST; check authentication if using a token"}
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== revlog Configuration Diagnostics ===")
	fmt.Fprintln(w)

	counts := make(map[CheckStatus]int)
	for _, r := range results {
		counts[r.Status]++

		fmt.Fprintf(w, "[%s] %s\n", r.Status, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusPass {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}
		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n",
		counts[StatusPass], counts[StatusWarn], counts[StatusFail])

	switch {
	case counts[StatusFail] > 0:
		fmt.Fprintln(w, "\nFix the errors above before searching.")
	case counts[StatusWarn] > 0:
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	default:
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
