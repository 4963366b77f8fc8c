package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/revlog/pkg/config"
	"github.com/ccollicutt/revlog/pkg/output"
	"github.com/ccollicutt/revlog/pkg/parser"
	"github.com/ccollicutt/revlog/pkg/search"
	"github.com/ccollicutt/revlog/pkg/webhook"
)

// SearchOptions holds command-line options for the search command.
type SearchOptions struct {
	Output  string
	Since   time.Duration
	Queries []string
	Verbose bool
	Quiet   bool

	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search <config-file>",
		Short: "Find the most recent log entries matching each query",
		Long: `Search log files for the most recent entries matching the queries defined
in the configuration file.

Files are read from the end, so a search stops as soon as every query has
its matches or a line older than the lookback window is reached.

Exit codes:
  0 - Every query found a match
  1 - At least one query found no match
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().DurationVar(&opts.Since, "since", 0, "Only consider lines logged within this window (e.g., 2h, 24h)")
	cmd.Flags().StringSliceVar(&opts.Queries, "query", nil, "Run specific query(s) only (can be repeated)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show every match and scan statistics")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnMissing), "When to fire webhook (on_missing|always|never)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string, opts *SearchOptions) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Since < 0 {
		return fmt.Errorf("invalid --since %s: must not be negative", opts.Since)
	}

	switch config.WebhookTrigger(opts.WebhookTrigger) {
	case "", config.WebhookTriggerOnMissing, config.WebhookTriggerAlways, config.WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid --webhook-trigger %q (must be on_missing, always, or never)", opts.WebhookTrigger)
	}

	formatter, err := output.New(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		return fmt.Errorf("expanding log sources: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no log files matched patterns: %v", cfg.LogSources)
	}

	searcher, err := search.NewSearcher(cfg, opts.Queries,
		search.WithSince(opts.Since),
		search.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating searcher: %w", err)
	}

	sourceOpts := []parser.SourceOption{
		parser.WithTimestamps(cfg.TimestampFormat.CompiledPattern(), cfg.TimestampFormat.Layout),
		parser.WithReaderOptions(readerOptions(cfg.ChunkBytes())...),
	}
	if cfg.Encoding != "" {
		dec, err := parser.NewDecoder(cfg.Encoding)
		if err != nil {
			return fmt.Errorf("encoding: %w", err)
		}
		sourceOpts = append(sourceOpts, parser.WithDecoder(dec))
	}

	source := newSource(files, sourceOpts...)
	defer source.Close()

	level.Debug(logger).Log("msg", "searching", "files", len(files), "queries", len(cfg.Queries))

	result, err := searcher.Search(ctx, source)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	report := output.NewReport(result, configPath)
	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	webhook.NewClient(logger).Notify(ctx, collectWebhooks(cfg, opts), report)

	if report.HasMissing() {
		ExitCode = 1
	}
	return nil
}

// collectWebhooks merges config file webhooks with the one given on the
// command line.
func collectWebhooks(cfg *config.Config, opts *SearchOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnMissing
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
