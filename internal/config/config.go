// Package config loads amergekv's bootstrap configuration: everything a
// deployment would otherwise have to pass as a long list of CLI flags —
// the shadow-index pattern registry, reindex throttling, and the
// optional push-notification and snapshot-archive sinks. CLI flags (see
// cmd/amergekv) override individual fields after load, the way the
// teacher's main.go layers flags over a loaded server_config.json.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IndexRule is one bootstrap-configured shadow-index pattern.
type IndexRule struct {
	Pattern string   `yaml:"pattern"`
	Enabled bool     `yaml:"enabled"`
	Paths   []string `yaml:"paths"`
	Format  string   `yaml:"format"`
}

// Config is the full bootstrap configuration shape.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`

	Indexes []IndexRule `yaml:"indexes"`

	ReindexPerSecond float64 `yaml:"reindex_per_second"`
	ReindexBurst     int     `yaml:"reindex_burst"`

	// SnapshotArchiveDir, if set, enables a go-git archive of every SAVE
	// blob alongside the host's own persistence (spec.md §4.4 supplement).
	SnapshotArchiveDir string `yaml:"snapshot_archive_dir"`

	// WebPush holds the optional push-notification fan-out sink config
	// (spec.md §4.6 supplement); a zero value disables it.
	WebPush WebPushConfig `yaml:"webpush"`
}

// WebPushConfig configures the optional Web Push sink.
type WebPushConfig struct {
	Enabled         bool   `yaml:"enabled"`
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subscriber      string `yaml:"subscriber_email"`
}

// Default returns the zero-friendly configuration used when no bootstrap
// file is given.
func Default() *Config {
	return &Config{
		DataDir:          "./data",
		LogLevel:         "info",
		ReindexPerSecond: 50,
		ReindexBurst:     10,
	}
}

// Load reads and parses a YAML bootstrap file at path. Missing optional
// fields keep Default's values by loading onto a Default-initialized
// Config rather than a zero one.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
