package shadowindex

import "testing"

func TestMatchPatternTrailingWildcard(t *testing.T) {
	cases := []struct {
		key, pattern string
		want         bool
	}{
		{"article:123", "article:*", true},
		{"user:abc", "user:*", true},
		{"post:123", "article:*", false},
		{"anything", "*", true},
		{"exact", "exact", true},
		{"exactish", "exact", false},
	}
	for _, c := range cases {
		if got := matchPattern(c.key, c.pattern); got != c.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", c.key, c.pattern, got, c.want)
		}
	}
}

func TestConfigureRejectsMidStringWildcard(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Configure("test:*:here", nil, Flat); err == nil {
		t.Fatalf("expected an error for a non-trailing wildcard")
	}
}

func TestMatchIsFirstRegisteredWins(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Configure("article:*", []string{"title"}, Flat); err != nil {
		t.Fatalf("configure 1: %v", err)
	}
	if _, err := r.Configure("article:special", []string{"title", "extra"}, Structured); err != nil {
		t.Fatalf("configure 2: %v", err)
	}

	cfg, ok := r.Match("article:special")
	if !ok {
		t.Fatalf("expected a match")
	}
	if cfg.Pattern != "article:*" {
		t.Fatalf("expected first-registered pattern to win, got %q", cfg.Pattern)
	}
}

func TestSetEnabledUnknownPattern(t *testing.T) {
	r := NewRegistry()
	if _, err := r.SetEnabled("missing:*", false); err == nil {
		t.Fatalf("expected NOT_FOUND for an unconfigured pattern")
	}
}

func TestMatchSkipsDisabledPattern(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Configure("user:*", []string{"name"}, Flat); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if _, err := r.SetEnabled("user:*", false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, ok := r.Match("user:1"); ok {
		t.Fatalf("expected no match for a disabled pattern")
	}
	matches := r.MatchAny("user:1")
	if len(matches) != 1 {
		t.Fatalf("MatchAny should still report the disabled pattern, got %d", len(matches))
	}
}
