package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindPlugin_NotFound(t *testing.T) {
	t.Setenv(DirEnv, t.TempDir())

	_, err := FindPlugin("nonexistent-plugin-xyz")
	if err != ErrPluginNotFound {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestFindPlugin_InPluginsDir(t *testing.T) {
	pluginsDir := t.TempDir()
	t.Setenv(DirEnv, pluginsDir)

	pluginPath := filepath.Join(pluginsDir, "revlog-testplugin")
	if err := os.WriteFile(pluginPath, []byte("#!/bin/sh\necho test"), 0755); err != nil {
		t.Fatalf("failed to create test plugin: %v", err)
	}

	found, err := FindPlugin("testplugin")
	if err != nil {
		t.Fatalf("expected to find plugin, got error: %v", err)
	}
	if found != pluginPath {
		t.Errorf("expected %s, got %s", pluginPath, found)
	}
}

func TestFindPlugin_SkipsNonExecutable(t *testing.T) {
	pluginsDir := t.TempDir()
	t.Setenv(DirEnv, pluginsDir)

	if err := os.WriteFile(filepath.Join(pluginsDir, "revlog-plain"), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := FindPlugin("plain"); err != ErrPluginNotFound {
		t.Errorf("expected ErrPluginNotFound for non-executable file, got %v", err)
	}
}

func TestDir(t *testing.T) {
	t.Setenv(DirEnv, "/opt/revlog/plugins")
	dir, err := Dir()
	if err != nil || dir != "/opt/revlog/plugins" {
		t.Errorf("Dir() = %q, %v; want override", dir, err)
	}

	t.Setenv(DirEnv, "")
	dir, err = Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if !strings.HasSuffix(dir, filepath.Join(".revlog", "plugins")) {
		t.Errorf("Dir() = %q, want ~/.revlog/plugins", dir)
	}
}

func TestExecute_ExitCode(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "revlog-fail")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 3\n"), 0755); err != nil {
		t.Fatal(err)
	}

	if code := Execute(script, nil); code != 3 {
		t.Errorf("Execute() = %d, want 3", code)
	}
}

func TestFormatNotFoundError_KnownPlugin(t *testing.T) {
	err := FormatNotFoundError("follow")

	if !strings.Contains(err, "available as a plugin") {
		t.Error("expected error to mention plugin availability")
	}
	if !strings.Contains(err, "revlog-follow") {
		t.Error("expected error to mention revlog-follow")
	}
}

func TestFormatNotFoundError_UnknownPlugin(t *testing.T) {
	err := FormatNotFoundError("unknown")

	if !strings.Contains(err, "revlog-unknown") {
		t.Error("expected error to mention revlog-unknown")
	}
	if strings.Contains(err, "available as a plugin") {
		t.Error("should not mention plugin availability for unknown plugins")
	}
}

func TestIsExecutable(t *testing.T) {
	tmpDir := t.TempDir()

	nonExec := filepath.Join(tmpDir, "nonexec")
	if err := os.WriteFile(nonExec, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if isExecutable(nonExec) {
		t.Error("non-executable file should not be detected as executable")
	}

	exec := filepath.Join(tmpDir, "exec")
	if err := os.WriteFile(exec, []byte("test"), 0755); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if !isExecutable(exec) {
		t.Error("executable file should be detected as executable")
	}

	if isExecutable(tmpDir) {
		t.Error("directory should not be detected as executable")
	}
	if isExecutable(filepath.Join(tmpDir, "nonexistent")) {
		t.Error("non-existent file should not be detected as executable")
	}
}
