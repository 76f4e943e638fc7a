// Package shadowindex implements the Shadow Index Engine (spec.md §4.7):
// a registry of key-pattern → projection configurations that keeps a
// plain host-native "shadow" key in sync with selected paths of an
// am-document, so external search/indexing tooling never has to
// understand the CRDT wire format. Grounded on the pattern-config and
// projection design of the original Rust module's index.rs.
package shadowindex

import (
	"sort"
	"strings"
	"sync"

	"github.com/amergekv/amergekv/internal/amerr"
)

// Format selects the shape a projection is written in.
type Format string

const (
	// Flat writes one host bytes-map key with dotted/bracket field names
	// flattened to underscores, values stringified (the Hash analogue).
	Flat Format = "flat"
	// Structured writes one host structured-json key preserving the
	// nested shape implied by each configured path (the JSON analogue).
	Structured Format = "structured"
)

// ParseFormat validates the command-line format token.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case Flat:
		return Flat, nil
	case Structured:
		return Structured, nil
	case "":
		return Flat, nil
	default:
		return "", amerr.Newf(amerr.BadArgs, "unknown index format %q", s)
	}
}

// ConfigKeyPrefix and IndexKeyPrefix name the two sibling host-key
// families a configured pattern produces: "cfg:<pattern>" holds the
// ShadowConfig itself, "idx:<key>" holds the live projection for one
// matching document key.
const (
	ConfigKeyPrefix = "cfg:"
	IndexKeyPrefix  = "idx:"
)

// ConfigKey returns the host bytes-map key a pattern's config is stored
// under.
func ConfigKey(pattern string) string { return ConfigKeyPrefix + pattern }

// IndexKey returns the host key a matching document's projection is
// written to.
func IndexKey(key string) string { return IndexKeyPrefix + key }

// Config is one registered pattern's projection rule.
type Config struct {
	Pattern string
	Enabled bool
	Paths   []string
	Format  Format
}

// Registry holds every configured pattern, matched in registration
// order — the first pattern a key matches wins, mirroring spec.md §4.7's
// "first match in configuration order" rule.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	patterns map[string]*Config
}

// NewRegistry returns an empty pattern registry.
func NewRegistry() *Registry {
	return &Registry{patterns: make(map[string]*Config)}
}

// Configure registers or replaces the rule for pattern. A fresh
// registration defaults to enabled; re-configuring an existing pattern
// preserves its current enabled state unless reset is requested by the
// caller deleting it first.
func (r *Registry) Configure(pattern string, paths []string, format Format) (*Config, error) {
	if pattern == "" {
		return nil, amerr.New(amerr.BadArgs, "index pattern must not be empty")
	}
	if strings.Count(pattern, "*") > 1 || (strings.Contains(pattern, "*") && !strings.HasSuffix(pattern, "*")) {
		return nil, amerr.Newf(amerr.BadArgs, "index pattern %q may only use a single trailing '*' wildcard", pattern)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, exists := r.patterns[pattern]
	if !exists {
		cfg = &Config{Pattern: pattern, Enabled: true}
		r.patterns[pattern] = cfg
		r.order = append(r.order, pattern)
	}
	cfg.Paths = append([]string(nil), paths...)
	cfg.Format = format
	return cfg, nil
}

// SetEnabled flips a pattern's enabled flag. Returns NOT_FOUND if the
// pattern was never configured.
func (r *Registry) SetEnabled(pattern string, enabled bool) (*Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.patterns[pattern]
	if !ok {
		return nil, amerr.Newf(amerr.NotFound, "no index configured for pattern %q", pattern)
	}
	cfg.Enabled = enabled
	return cfg, nil
}

// Remove deletes a pattern's configuration entirely.
func (r *Registry) Remove(pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patterns[pattern]; !ok {
		return
	}
	delete(r.patterns, pattern)
	for i, p := range r.order {
		if p == pattern {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a copy of one pattern's config.
func (r *Registry) Get(pattern string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.patterns[pattern]
	if !ok {
		return Config{}, false
	}
	return *cfg, true
}

// All returns every configured pattern's config, in registration order.
func (r *Registry) All() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Config, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, *r.patterns[p])
	}
	return out
}

// Match returns the first enabled configuration (in registration order)
// whose pattern matches key, or ok=false if none does.
func (r *Registry) Match(key string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.order {
		cfg := r.patterns[p]
		if cfg.Enabled && matchPattern(key, p) {
			return *cfg, true
		}
	}
	return Config{}, false
}

// MatchAny returns every configured pattern (enabled or not) whose glob
// matches key, in registration order — a diagnostic for finding every
// pattern that covers one key.
func (r *Registry) MatchAny(key string) []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Config
	for _, p := range r.order {
		cfg := r.patterns[p]
		if matchPattern(key, p) {
			out = append(out, *cfg)
		}
	}
	return out
}

// matchPattern implements spec.md §4.7's restricted glob: a literal
// string, or a literal prefix followed by exactly one trailing '*'.
func matchPattern(key, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return key == pattern
	}
	prefix := strings.TrimSuffix(pattern, "*")
	return strings.HasPrefix(key, prefix)
}

// Patterns returns every registered pattern string, sorted, for
// diagnostics and deterministic test output.
func (r *Registry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]string(nil), r.order...)
	sort.Strings(out)
	return out
}
