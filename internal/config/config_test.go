package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DataDir != "./data" {
		t.Fatalf("DataDir = %q, want ./data", cfg.DataDir)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.ReindexPerSecond != 50 || cfg.ReindexBurst != 10 {
		t.Fatalf("reindex throttle = %v/%v, want 50/10", cfg.ReindexPerSecond, cfg.ReindexBurst)
	}
	if len(cfg.Indexes) != 0 {
		t.Fatalf("Indexes = %v, want none", cfg.Indexes)
	}
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := "data_dir: /var/lib/amergekv\n" +
		"indexes:\n" +
		"  - pattern: \"user:*\"\n" +
		"    enabled: true\n" +
		"    format: flat\n" +
		"    paths: [\"name\", \"email\"]\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/var/lib/amergekv" {
		t.Fatalf("DataDir = %q, want /var/lib/amergekv", cfg.DataDir)
	}
	// LogLevel and the reindex throttle were not given in the file, so they
	// should keep Default's values rather than be zeroed.
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want the default info (unset in file)", cfg.LogLevel)
	}
	if cfg.ReindexPerSecond != 50 || cfg.ReindexBurst != 10 {
		t.Fatalf("reindex throttle = %v/%v, want the defaults 50/10 (unset in file)", cfg.ReindexPerSecond, cfg.ReindexBurst)
	}
	if len(cfg.Indexes) != 1 {
		t.Fatalf("Indexes = %+v, want one rule", cfg.Indexes)
	}
	rule := cfg.Indexes[0]
	if rule.Pattern != "user:*" || !rule.Enabled || rule.Format != "flat" {
		t.Fatalf("Indexes[0] = %+v, unexpected", rule)
	}
	if len(rule.Paths) != 2 || rule.Paths[0] != "name" || rule.Paths[1] != "email" {
		t.Fatalf("Indexes[0].Paths = %v, want [name email]", rule.Paths)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestLoadInvalidYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("data_dir: [this is not a string\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for malformed YAML")
	}
}
