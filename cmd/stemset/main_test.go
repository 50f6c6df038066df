package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stemset/internal/config"
	"stemset/internal/testsupport"
)

// writeTestConfig serializes the fields the CLI reads into a TOML file.
func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
raw_audio_dir = %q
spleeter_dir = %q
demucs_dir = %q
catalog_dir = %q
log_dir = %q
`,
		cfg.Paths.DataDir,
		cfg.Paths.RawAudioDir,
		cfg.Paths.SpleeterDir,
		cfg.Paths.DemucsDir,
		cfg.Paths.CatalogDir,
		cfg.Paths.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := runCLI(t, "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, command := range []string{"build", "status", "config", "deps"} {
		requireContains(t, out, command)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowRendersSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, err := runCLI(t, "config", "show", "--config", configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "catalog_dir")
	requireContains(t, out, cfg.Paths.CatalogDir)
}

func TestStatusWithoutRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, err := runCLI(t, "status", "--config", configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No build runs recorded yet")
}

func TestDepsReportsMissingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Tools.YtDlp = "definitely-not-a-real-binary"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	// The generated config file carries only paths, so the tool override
	// above needs to be written too.
	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content = append(content, []byte("\n[tools]\nyt_dlp = \"definitely-not-a-real-binary\"\n")...)
	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCLI(t, "deps", "--config", configPath)
	if err == nil {
		t.Fatal("expected failure with missing tool")
	}
	requireContains(t, out, "definitely-not-a-real-binary")
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"some_tune_1", "Some Tune 1"},
		{"track", "Track"},
	}
	for _, tc := range cases {
		if got := displayName(tc.in); got != tc.want {
			t.Fatalf("displayName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
