package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureGenerate swaps the runner for one that records the resolved config.
// Tests using it must not run in parallel.
func captureGenerate(t *testing.T) **GenerateConfig {
	t.Helper()
	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })
	return &captured
}

func TestGenerateConfigFromFlags(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	captured := captureGenerate(t)

	root.SetArgs([]string{
		"--verbose",
		"generate",
		"--input", "spec.yaml",
		"--out", "./build/api.ts",
		"--include-tags", "foo,bar",
		"--exclude-tags", "baz",
		"--methods", "GET,post",
		"--paths", "^/pets",
		"--request-helper", "http",
		"--import-from", "./http",
		"--on-collision", "overwrite",
		"--dry-run",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	cfg := *captured
	if cfg == nil {
		t.Fatalf("expected config to be captured")
	}
	if cfg.Input != "spec.yaml" {
		t.Errorf("input mismatch: got %q", cfg.Input)
	}
	if cfg.Out != "./build/api.ts" {
		t.Errorf("out mismatch: got %q", cfg.Out)
	}
	if want := []string{"foo", "bar"}; !equalStringSlices(cfg.IncludeTags, want) {
		t.Errorf("include tags mismatch: got %v", cfg.IncludeTags)
	}
	if want := []string{"baz"}; !equalStringSlices(cfg.ExcludeTags, want) {
		t.Errorf("exclude tags mismatch: got %v", cfg.ExcludeTags)
	}
	if want := []string{"get", "post"}; !equalStringSlices(cfg.Methods, want) {
		t.Errorf("methods mismatch: got %v", cfg.Methods)
	}
	if want := []string{"^/pets"}; !equalStringSlices(cfg.Paths, want) {
		t.Errorf("paths mismatch: got %v", cfg.Paths)
	}
	if cfg.RequestHelper != "http" {
		t.Errorf("request helper mismatch: got %q", cfg.RequestHelper)
	}
	if cfg.ImportFrom != "./http" {
		t.Errorf("import from mismatch: got %q", cfg.ImportFrom)
	}
	if cfg.OnCollision != "overwrite" {
		t.Errorf("on collision mismatch: got %q", cfg.OnCollision)
	}
	if !cfg.DryRun {
		t.Errorf("expected dry-run true")
	}
	if !cfg.Verbose {
		t.Errorf("expected verbose true")
	}
}

func TestGenerateConfigDefaultsAndArgs(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	captured := captureGenerate(t)

	root.SetArgs([]string{"generate", "openapi.json", "out/api.ts"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	cfg := *captured
	if cfg.Input != "openapi.json" || cfg.Out != "out/api.ts" {
		t.Errorf("positional args: got input %q out %q", cfg.Input, cfg.Out)
	}
	if cfg.RequestHelper != "request" {
		t.Errorf("request helper default: got %q", cfg.RequestHelper)
	}
	if cfg.OnCollision != "error" {
		t.Errorf("on collision default: got %q", cfg.OnCollision)
	}

	root = NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "-"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if cfg := *captured; cfg.Input != "-" || cfg.Out != "-" {
		t.Errorf("stdio: got input %q out %q", cfg.Input, cfg.Out)
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := strings.TrimSpace(`input: config-spec.yaml
out: from-config.ts
includeTags:
  - cfgFoo
exclude_tags: cfgBar
request-helper: cfgRequest
importFrom: ./cfg
onCollision: overwrite
dryRun: true
verbose: true
`) + "\n"

	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	captured := captureGenerate(t)

	root.SetArgs([]string{
		"--config", configPath,
		"generate",
		"--input", "flag-spec.yaml",
		"--include-tags", "flagTag",
		"--dry-run=false",
		"--request-helper", "flagRequest",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	cfg := *captured
	if cfg == nil {
		t.Fatalf("expected config to be captured")
	}
	if cfg.Input != "flag-spec.yaml" {
		t.Errorf("input: want %q got %q", "flag-spec.yaml", cfg.Input)
	}
	if cfg.Out != "from-config.ts" {
		t.Errorf("out: want from-config.ts got %q", cfg.Out)
	}
	if want := []string{"flagTag"}; !equalStringSlices(cfg.IncludeTags, want) {
		t.Errorf("include tags: want %v got %v", want, cfg.IncludeTags)
	}
	if want := []string{"cfgBar"}; !equalStringSlices(cfg.ExcludeTags, want) {
		t.Errorf("exclude tags: want %v got %v", want, cfg.ExcludeTags)
	}
	if cfg.RequestHelper != "flagRequest" {
		t.Errorf("request helper: got %q", cfg.RequestHelper)
	}
	if cfg.ImportFrom != "./cfg" {
		t.Errorf("import from: got %q", cfg.ImportFrom)
	}
	if cfg.OnCollision != "overwrite" {
		t.Errorf("on collision: got %q", cfg.OnCollision)
	}
	if cfg.DryRun {
		t.Errorf("expected dry-run false after flag override")
	}
	if !cfg.Verbose {
		t.Errorf("expected verbose true from config file")
	}
	if cfg.ConfigPath != configPath {
		t.Errorf("config path mismatch: got %q", cfg.ConfigPath)
	}
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("unknown: value\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	root.SetArgs([]string{
		"--config", configPath,
		"generate",
		"--input", "spec.yaml",
	})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestGenerateConfigValidation(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		"missing input": {"generate"},
		"tag overlap":   {"generate", "spec.yaml", "--include-tags", "a", "--exclude-tags", "a"},
		"bad method":    {"generate", "spec.yaml", "--methods", "fetch"},
		"bad pattern":   {"generate", "spec.yaml", "--paths", "("},
		"bad helper":    {"generate", "spec.yaml", "--request-helper", "my helper"},
		"bad policy":    {"generate", "spec.yaml", "--on-collision", "merge"},
		"input twice":   {"generate", "spec.yaml", "--input", "other.yaml"},
		"too many args": {"generate", "a", "b", "c"},
		"output twice":  {"generate", "spec.yaml", "out.ts", "--out", "x.ts"},
	}
	for name, args := range cases {
		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(args)
		err := root.Execute()
		if err == nil {
			t.Errorf("%s: expected an error", name)
			continue
		}
		if name == "too many args" {
			// cobra reports argument count errors itself
			continue
		}
		if !errors.Is(err, ErrUsage) {
			t.Errorf("%s: expected usage error, got %v", name, err)
		}
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
