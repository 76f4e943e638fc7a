package binding

import (
	"context"
	"testing"

	"github.com/amergekv/amergekv/internal/amdoc"
	"github.com/amergekv/amergekv/internal/host"
)

func TestGetOrCreateBindsFreshDocument(t *testing.T) {
	h, err := host.NewMemHost("")
	if err != nil {
		t.Fatalf("NewMemHost: %v", err)
	}
	r := New(h, nil)

	d, err := r.GetOrCreate(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if d == nil {
		t.Fatalf("expected a document")
	}
	if !r.Exists("doc1") {
		t.Fatalf("expected doc1 to be bound after GetOrCreate")
	}
}

func TestPersistRoundTripsThroughHost(t *testing.T) {
	ctx := context.Background()
	h, err := host.NewMemHost("")
	if err != nil {
		t.Fatalf("NewMemHost: %v", err)
	}
	r := New(h, nil)

	d, err := r.GetOrCreate(ctx, "doc1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := d.PutText("title", "hello"); err != nil {
		t.Fatalf("puttext: %v", err)
	}
	if err := r.Persist(ctx, "doc1"); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	r2 := New(h, nil)
	got, ok, err := r2.Get(ctx, "doc1")
	if err != nil || !ok {
		t.Fatalf("Get after persist: ok=%v err=%v", ok, err)
	}
	title, ok, err := got.GetText("title")
	if err != nil || !ok || title != "hello" {
		t.Fatalf("GetText = %q, %v, %v", title, ok, err)
	}
}

func TestGetMissingKeyReturnsNotOk(t *testing.T) {
	h, err := host.NewMemHost("")
	if err != nil {
		t.Fatalf("NewMemHost: %v", err)
	}
	r := New(h, nil)
	_, ok, err := r.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for an unbound key")
	}
}

func TestDeleteUnbindsFromRegistryAndHost(t *testing.T) {
	ctx := context.Background()
	h, err := host.NewMemHost("")
	if err != nil {
		t.Fatalf("NewMemHost: %v", err)
	}
	r := New(h, nil)
	if _, err := r.GetOrCreate(ctx, "doc1"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := r.Persist(ctx, "doc1"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := r.Delete(ctx, "doc1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if r.Exists("doc1") {
		t.Fatalf("expected doc1 to be unbound after Delete")
	}
	_, ok, err := h.LoadDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if ok {
		t.Fatalf("expected the host copy to be gone after Delete")
	}
}

func TestSnapshotArchiveRecordsCommit(t *testing.T) {
	dir := t.TempDir()
	archive, err := OpenSnapshotArchive(dir)
	if err != nil {
		t.Fatalf("OpenSnapshotArchive: %v", err)
	}
	d := amdoc.New()
	if _, err := d.PutText("title", "hello"); err != nil {
		t.Fatalf("puttext: %v", err)
	}
	if err := archive.Record("doc:1", d.Save()); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// A second identical record should be a clean no-op commit, not an error.
	if err := archive.Record("doc:1", d.Save()); err != nil {
		t.Fatalf("Record (no-op): %v", err)
	}
}
