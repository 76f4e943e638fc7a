package amdoc

import "testing"

func TestParsePathEquivalentNotations(t *testing.T) {
	want := Path{
		{Kind: SegField, Field: "a"},
		{Kind: SegField, Field: "b"},
		{Kind: SegIndex, Index: 0},
	}
	for _, surface := range []string{"$.a.b[0]", "$a.b[0]", "a.b[0]"} {
		got, err := ParsePath(surface)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", surface, err)
		}
		if len(got) != len(want) {
			t.Fatalf("ParsePath(%q) = %+v, want %+v", surface, got, want)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("ParsePath(%q)[%d] = %+v, want %+v", surface, i, got[i], want[i])
			}
		}
	}
}

func TestParsePathRoot(t *testing.T) {
	for _, surface := range []string{"", "$", "$."} {
		got, err := ParsePath(surface)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", surface, err)
		}
		if len(got) != 0 {
			t.Fatalf("ParsePath(%q) = %+v, want empty path", surface, got)
		}
	}
}

func TestParsePathRejectsEmptySegment(t *testing.T) {
	if _, err := ParsePath("a..b"); err == nil {
		t.Fatalf("expected an error for a doubled separator")
	}
}

func TestParsePathMultiIndex(t *testing.T) {
	got, err := ParsePath("matrix[1][2]")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	want := Path{
		{Kind: SegField, Field: "matrix"},
		{Kind: SegIndex, Index: 1},
		{Kind: SegIndex, Index: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPathStringRoundTrip(t *testing.T) {
	p, err := ParsePath("$.a.b[0]")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if got := p.String(); got != "$.a.b[0]" {
		t.Fatalf("String() = %q, want %q", got, "$.a.b[0]")
	}
}
