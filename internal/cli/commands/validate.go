package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/revlog/pkg/config"
	"github.com/ccollicutt/revlog/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a revlog configuration file without searching.

Checks:
  - YAML syntax
  - Required fields
  - Regex pattern validity
  - Chunk size and encoding
  - Query and webhook settings
  - Log source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Log sources: %d pattern(s)\n", len(cfg.LogSources))
	fmt.Fprintf(w, "  Chunk size:  %s\n", cfg.ChunkSize)
	if cfg.Encoding != "" {
		fmt.Fprintf(w, "  Encoding:    %s\n", cfg.Encoding)
	}
	fmt.Fprintf(w, "  Queries:     %d\n", len(cfg.Queries))
	fmt.Fprintf(w, "  Webhooks:    %d\n", len(cfg.Webhooks))

	fmt.Fprintf(w, "\nQueries:\n")
	for i, q := range cfg.Queries {
		fmt.Fprintf(w, "  %d. %s /%s/ (limit %d", i+1, q.Name, q.Pattern, q.Limit)
		if q.Within > 0 {
			fmt.Fprintf(w, ", within %s", q.Within)
		}
		fmt.Fprintln(w, ")")
		if q.Description != "" {
			fmt.Fprintf(w, "     %s\n", q.Description)
		}
	}

	files, err := parser.ExpandGlobs(cfg.LogSources)
	switch {
	case err != nil:
		fmt.Fprintf(w, "\nWarning: Error expanding log source patterns: %v\n", err)
	case len(files) == 0:
		fmt.Fprintf(w, "\nWarning: No files match log source patterns\n")
	default:
		fmt.Fprintf(w, "\nLog files matched: %d\n", len(files))
		for _, f := range files {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	return nil
}
