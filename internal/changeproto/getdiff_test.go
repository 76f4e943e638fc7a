package changeproto

import (
	"testing"

	"github.com/amergekv/amergekv/internal/amdoc"
)

func headStrings(d *amdoc.Document) []string {
	heads := d.Heads()
	out := make([]string, len(heads))
	for i, h := range heads {
		out[i] = h.String()
	}
	return out
}

func TestGetDiffReportsPutAfterBefore(t *testing.T) {
	d := amdoc.New()
	before := headStrings(d)

	if _, err := d.PutText("title", "hello"); err != nil {
		t.Fatalf("puttext: %v", err)
	}
	after := headStrings(d)

	patches, err := GetDiff(d, before, after)
	if err != nil {
		t.Fatalf("GetDiff: %v", err)
	}
	if len(patches) == 0 {
		t.Fatalf("expected at least one patch between empty doc and one put")
	}
}

func TestGetDiffEmptyForIdenticalHeads(t *testing.T) {
	d := amdoc.New()
	if _, err := d.PutText("title", "hello"); err != nil {
		t.Fatalf("puttext: %v", err)
	}
	heads := headStrings(d)

	patches, err := GetDiff(d, heads, heads)
	if err != nil {
		t.Fatalf("GetDiff: %v", err)
	}
	if len(patches) != 0 {
		t.Fatalf("expected no patches between identical head sets, got %d", len(patches))
	}
}

func TestGetDiffDeterministicOrdering(t *testing.T) {
	d := amdoc.New()
	before := headStrings(d)
	if _, err := d.PutText("a", "1"); err != nil {
		t.Fatalf("puttext a: %v", err)
	}
	if _, err := d.PutText("b", "2"); err != nil {
		t.Fatalf("puttext b: %v", err)
	}
	after := headStrings(d)

	p1, err := GetDiff(d, before, after)
	if err != nil {
		t.Fatalf("GetDiff 1: %v", err)
	}
	p2, err := GetDiff(d, before, after)
	if err != nil {
		t.Fatalf("GetDiff 2: %v", err)
	}
	b1, err := MarshalPatches(p1)
	if err != nil {
		t.Fatalf("marshal 1: %v", err)
	}
	b2, err := MarshalPatches(p2)
	if err != nil {
		t.Fatalf("marshal 2: %v", err)
	}
	if string(b1) != string(b2) {
		t.Fatalf("GetDiff is not deterministic across repeated calls:\n%s\nvs\n%s", b1, b2)
	}
}
