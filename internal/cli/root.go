// Package cli provides the command-line interface for revlog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/revlog/internal/cli/commands"
	"github.com/ccollicutt/revlog/internal/cli/plugins"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if name, ok := pluginCandidate(rootCmd, os.Args[1:]); ok {
		if pluginPath, err := plugins.FindPlugin(name); err == nil {
			return plugins.Execute(pluginPath, os.Args[2:])
		}
	}

	if err := rootCmd.Execute(); err != nil {
		if name, ok := pluginCandidate(rootCmd, os.Args[1:]); ok {
			_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(name))
			return 2
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return commands.ExitCode
}

// pluginCandidate returns the first argument when it names no built-in
// command and is not a flag.
func pluginCandidate(rootCmd *cobra.Command, args []string) (string, bool) {
	if len(args) == 0 || args[0] == "" || args[0][0] == '-' {
		return "", false
	}
	if isBuiltinCommand(rootCmd, args[0]) {
		return "", false
	}
	return args[0], true
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "revlog",
		Short: "Read log files backwards, newest line first",
		Long: `revlog reads log files from the end, so the newest entries are found
without scanning the whole file.

  tail      print the last lines of files, newest first
  search    find the most recent entries matching configured queries
  detect    detect the timestamp format from a file's newest lines

PLUGINS:
  Unknown commands run standalone binaries named revlog-<command>.

  Plugin locations (searched in order):
    1. Same directory as the revlog binary
    2. ~/.revlog/plugins/
    3. Anywhere in PATH`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.Setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return commands.WriteMetrics()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&commands.Globals.LogLevel, "log-level", commands.Globals.LogLevel, "Log level (debug|info|warn|error)")
	flags.StringVar(&commands.Globals.LogFormat, "log-format", commands.Globals.LogFormat, "Log format (logfmt|json)")
	flags.StringVar(&commands.Globals.MetricsFile, "metrics-file", "", "Write reader metrics to this file in Prometheus text format")

	rootCmd.AddCommand(commands.NewTailCommand())
	rootCmd.AddCommand(commands.NewSearchCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
