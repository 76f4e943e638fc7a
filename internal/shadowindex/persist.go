package shadowindex

import (
	"context"
	"strconv"
	"strings"

	"github.com/amergekv/amergekv/internal/amerr"
	"github.com/amergekv/amergekv/internal/host"
)

// SaveConfig writes one pattern's configuration to its host bytes-map
// sibling key (cfg:<pattern>), field-per-attribute — the same shape
// IndexConfig::save gives a Valkey Hash in the original module.
func SaveConfig(ctx context.Context, h host.Host, cfg Config) error {
	fields := map[string]string{
		"enabled": strconv.FormatBool(cfg.Enabled),
		"paths":   strings.Join(cfg.Paths, ","),
		"format":  string(cfg.Format),
	}
	if err := h.PutBytesMap(ctx, ConfigKey(cfg.Pattern), fields); err != nil {
		return amerr.Newf(amerr.HostLogError, "persist index config for %q", cfg.Pattern).Wrap(err)
	}
	return nil
}

// LoadConfig reads one pattern's configuration back from its host
// bytes-map sibling key. ok is false if no such key exists.
func LoadConfig(ctx context.Context, h host.Host, pattern string) (Config, bool, error) {
	fields, ok, err := h.GetBytesMap(ctx, ConfigKey(pattern))
	if err != nil {
		return Config{}, false, amerr.Newf(amerr.HostLogError, "load index config for %q", pattern).Wrap(err)
	}
	if !ok {
		return Config{}, false, nil
	}
	cfg := Config{
		Pattern: pattern,
		Enabled: fields["enabled"] != "false" && fields["enabled"] != "0",
		Format:  Flat,
	}
	if p := fields["paths"]; p != "" {
		cfg.Paths = strings.Split(p, ",")
	}
	if f, err := ParseFormat(fields["format"]); err == nil {
		cfg.Format = f
	}
	return cfg, true, nil
}

// Persist writes every registered pattern's configuration to the host,
// so a restart can recover the registry via RestoreOne per known
// pattern (the registry's pattern list itself comes from the bootstrap
// config file — the host has no key-enumeration primitive in this
// module's abstract Host contract).
func (r *Registry) Persist(ctx context.Context, h host.Host) error {
	for _, cfg := range r.All() {
		if err := SaveConfig(ctx, h, cfg); err != nil {
			return err
		}
	}
	return nil
}

// RestoreOne loads pattern's configuration from the host and installs it
// into the registry, returning ok=false if the host has no record of it.
func (r *Registry) RestoreOne(ctx context.Context, h host.Host, pattern string) (bool, error) {
	cfg, ok, err := LoadConfig(ctx, h, pattern)
	if err != nil || !ok {
		return false, err
	}
	if _, err := r.Configure(cfg.Pattern, cfg.Paths, cfg.Format); err != nil {
		return false, err
	}
	if _, err := r.SetEnabled(cfg.Pattern, cfg.Enabled); err != nil {
		return false, err
	}
	return true, nil
}
