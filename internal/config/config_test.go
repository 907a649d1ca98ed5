package config

import (
	"os"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoad(t *testing.T) {
	content := `
scan_paths = ["./src"]

[exclude]
dirs = [".git", ".venv"]
files = ["*_pb2.py"]

[watch]
debounce = "1s"
max_per_second = 2.0

[fix]
default_call_args = ["db", "cfg"]
strip_local_imports = true

[builtins]
extra = ["app", "request"]

[history]
path = "runs.db"

[observability]
listen = "localhost:9100"
otlp_endpoint = "localhost:4317"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.ScanPaths) != 1 || cfg.ScanPaths[0] != "./src" {
		t.Errorf("Unexpected ScanPaths: %v", cfg.ScanPaths)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxPerSecond != 2.0 {
		t.Errorf("Expected max_per_second 2.0, got %v", cfg.Watch.MaxPerSecond)
	}
	if len(cfg.Fix.DefaultCallArgs) != 2 || cfg.Fix.DefaultCallArgs[1] != "cfg" {
		t.Errorf("Unexpected DefaultCallArgs: %v", cfg.Fix.DefaultCallArgs)
	}
	if !cfg.Fix.StripLocalImports {
		t.Error("Expected strip_local_imports true")
	}
	if len(cfg.Builtins.Extra) != 2 || cfg.Builtins.Extra[0] != "app" {
		t.Errorf("Unexpected Builtins.Extra: %v", cfg.Builtins.Extra)
	}
	if cfg.History.Path != "runs.db" {
		t.Errorf("Unexpected History.Path: %s", cfg.History.Path)
	}
	if cfg.Observability.OTLPEndpoint != "localhost:4317" {
		t.Errorf("Unexpected OTLPEndpoint: %s", cfg.Observability.OTLPEndpoint)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ``))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected default debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if len(cfg.ScanPaths) != 1 || cfg.ScanPaths[0] != "." {
		t.Errorf("Expected default scan path '.', got %v", cfg.ScanPaths)
	}
	if len(cfg.Fix.DefaultCallArgs) != 1 || cfg.Fix.DefaultCallArgs[0] != "db" {
		t.Errorf("Expected default call args [db], got %v", cfg.Fix.DefaultCallArgs)
	}
	if cfg.Observability.Listen == "" {
		t.Error("Expected a default observability listen address")
	}
}

func TestDefaultMatchesEmptyFile(t *testing.T) {
	fromFile, err := Load(writeConfig(t, ``))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	def := Default()
	if def.Watch.Debounce != fromFile.Watch.Debounce {
		t.Error("Default() and empty file disagree on debounce")
	}
	if len(def.Exclude.Dirs) != len(fromFile.Exclude.Dirs) {
		t.Error("Default() and empty file disagree on exclude dirs")
	}
}

func TestLoadError(t *testing.T) {
	if _, err := Load("nonexistent.toml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}

	if _, err := Load(writeConfig(t, "bad = toml = format")); err == nil {
		t.Error("Expected error for malformed TOML")
	}
}

func TestValidateRejectsNegativeDebounce(t *testing.T) {
	if _, err := Load(writeConfig(t, "[watch]\ndebounce = \"-1s\"\n")); err == nil {
		t.Error("Expected error for negative debounce")
	}
}
