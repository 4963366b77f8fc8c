// Package plugins runs external revlog-<command> binaries for commands
// revlog does not build in, the way kubectl and git do.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Prefix is prepended to a command name to form the plugin binary name.
const Prefix = "revlog-"

// DirEnv overrides the per-user plugin directory.
const DirEnv = "REVLOG_PLUGIN_DIR"

// KnownPlugins lists plugins with official implementations. They get a
// description in the not-found message.
var KnownPlugins = map[string]string{
	"follow": "Follow files as they grow and print new lines as they are written.",
	"stats":  "Summarise line counts and timestamp spread across rotated logs.",
}

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// Dir returns the per-user plugin directory, ~/.revlog/plugins unless
// REVLOG_PLUGIN_DIR is set.
func Dir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".revlog", "plugins"), nil
}

// FindPlugin searches for a binary named revlog-<command>, in order:
//  1. the directory holding the revlog binary
//  2. the per-user plugin directory (see Dir)
//  3. PATH
func FindPlugin(command string) (string, error) {
	name := Prefix + command

	var dirs []string
	if execPath, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(execPath))
	}
	if dir, err := Dir(); err == nil {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	return "", ErrPluginNotFound
}

// Execute runs a plugin attached to the current stdio and returns its
// exit code.
func Execute(pluginPath string, args []string) int {
	cmd := exec.Command(pluginPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 2
	}
	return 0
}

// FormatNotFoundError builds the message shown for an unknown command.
func FormatNotFoundError(command string) string {
	var sb strings.Builder
	name := Prefix + command

	fmt.Fprintf(&sb, "unknown command %q for \"revlog\"\n", command)

	if info, ok := KnownPlugins[command]; ok {
		fmt.Fprintf(&sb, "\n%q is available as a plugin.\n%s\n\nInstall the plugin binary as one of:\n", command, info)
	} else {
		sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	}

	fmt.Fprintf(&sb, "  - %s in the same directory as revlog\n", name)
	fmt.Fprintf(&sb, "  - ~/.revlog/plugins/%s (or $%s/%s)\n", name, DirEnv, name)
	fmt.Fprintf(&sb, "  - %s anywhere in your PATH\n", name)
	sb.WriteString("\nRun 'revlog --help' for usage.")

	return sb.String()
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}
