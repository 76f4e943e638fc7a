package amdoc

import (
	"testing"

	"github.com/amergekv/amergekv/internal/amerr"
)

func TestPutAndGetScalars(t *testing.T) {
	d := New()

	if _, err := d.PutText("name", "alice"); err != nil {
		t.Fatalf("PutText: %v", err)
	}
	if got, ok, err := d.GetText("name"); err != nil || !ok || got != "alice" {
		t.Fatalf("GetText = %q, %v, %v", got, ok, err)
	}

	if _, err := d.PutInt("age", 30); err != nil {
		t.Fatalf("PutInt: %v", err)
	}
	if got, ok, err := d.GetInt("age"); err != nil || !ok || got != 30 {
		t.Fatalf("GetInt = %d, %v, %v", got, ok, err)
	}

	if _, err := d.PutDouble("height", 1.75); err != nil {
		t.Fatalf("PutDouble: %v", err)
	}
	if got, ok, err := d.GetDouble("height"); err != nil || !ok || got != 1.75 {
		t.Fatalf("GetDouble = %v, %v, %v", got, ok, err)
	}

	if _, err := d.PutBool("active", true); err != nil {
		t.Fatalf("PutBool: %v", err)
	}
	if got, ok, err := d.GetBool("active"); err != nil || !ok || !got {
		t.Fatalf("GetBool = %v, %v, %v", got, ok, err)
	}
}

func TestPutScalarMaterializesIntermediateMaps(t *testing.T) {
	d := New()
	if _, err := d.PutText("a.b.c", "deep"); err != nil {
		t.Fatalf("PutText: %v", err)
	}
	got, ok, err := d.GetText("a.b.c")
	if err != nil || !ok || got != "deep" {
		t.Fatalf("GetText = %q, %v, %v", got, ok, err)
	}
}

func TestReadMissingPathNeverErrors(t *testing.T) {
	d := New()
	if _, ok, err := d.GetText("nope.nothere"); err != nil || ok {
		t.Fatalf("expected ok=false, err=nil for a missing path; got ok=%v err=%v", ok, err)
	}
}

func TestWriteThroughScalarIsPathTypeMismatch(t *testing.T) {
	d := New()
	if _, err := d.PutText("a", "scalar"); err != nil {
		t.Fatalf("PutText: %v", err)
	}
	_, err := d.PutText("a.b", "oops")
	if err == nil {
		t.Fatalf("expected an error writing through a scalar")
	}
	if !amerr.Is(err, amerr.PathTypeMismatch) {
		t.Fatalf("got %v, want PATH_TYPE_MISMATCH", err)
	}
}

func TestCounterLifecycle(t *testing.T) {
	d := New()
	if _, err := d.PutCounter("hits", 5); err != nil {
		t.Fatalf("PutCounter: %v", err)
	}
	if _, err := d.IncCounter("hits", 3); err != nil {
		t.Fatalf("IncCounter: %v", err)
	}
	if _, err := d.IncCounter("hits", -1); err != nil {
		t.Fatalf("IncCounter (negative): %v", err)
	}
	got, ok, err := d.GetCounter("hits")
	if err != nil || !ok || got != 7 {
		t.Fatalf("GetCounter = %d, %v, %v, want 7", got, ok, err)
	}
}

func TestIncCounterOnNonCounterIsTypeMismatch(t *testing.T) {
	d := New()
	if _, err := d.PutInt("n", 1); err != nil {
		t.Fatalf("PutInt: %v", err)
	}
	_, err := d.IncCounter("n", 1)
	if !amerr.Is(err, amerr.TypeMismatch) {
		t.Fatalf("got %v, want TYPE_MISMATCH", err)
	}
}

func TestListAppendAndLen(t *testing.T) {
	d := New()
	if _, err := d.CreateList("items"); err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	if _, err := d.AppendText("items", "a"); err != nil {
		t.Fatalf("AppendText: %v", err)
	}
	if _, err := d.AppendInt("items", 2); err != nil {
		t.Fatalf("AppendInt: %v", err)
	}
	n, ok, err := d.ListLen("items")
	if err != nil || !ok || n != 2 {
		t.Fatalf("ListLen = %d, %v, %v, want 2", n, ok, err)
	}
}

func TestAppendOnNonListIsTypeMismatch(t *testing.T) {
	d := New()
	if _, err := d.PutText("x", "notalist"); err != nil {
		t.Fatalf("PutText: %v", err)
	}
	_, err := d.AppendText("x", "y")
	if !amerr.Is(err, amerr.TypeMismatch) {
		t.Fatalf("got %v, want TYPE_MISMATCH", err)
	}
}

func TestDeleteMapField(t *testing.T) {
	d := New()
	if _, err := d.PutText("k", "v"); err != nil {
		t.Fatalf("PutText: %v", err)
	}
	n, _, err := d.Delete("k")
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v, want 1, nil", n, err)
	}
	if _, ok, _ := d.GetText("k"); ok {
		t.Fatalf("expected k to be gone after delete")
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	d := New()
	n, frames, err := d.Delete("nope")
	if err != nil || n != 0 || frames != nil {
		t.Fatalf("Delete(missing) = %d, %v, %v, want 0, nil, nil", n, frames, err)
	}
}

func TestSpliceTextCoercesStringInPlace(t *testing.T) {
	d := New()
	if _, err := d.PutText("note", "hello"); err != nil {
		t.Fatalf("PutText: %v", err)
	}
	if _, err := d.SpliceText("note", 5, 0, " world"); err != nil {
		t.Fatalf("SpliceText: %v", err)
	}
	got, ok, err := d.GetText("note")
	if err != nil || !ok || got != "hello world" {
		t.Fatalf("GetText = %q, %v, %v, want %q", got, ok, err, "hello world")
	}
}

func TestSpliceTextClampsOverlongDelete(t *testing.T) {
	d := New()
	if _, err := d.PutText("note", "hello"); err != nil {
		t.Fatalf("PutText: %v", err)
	}
	if _, err := d.SpliceText("note", 2, 100, ""); err != nil {
		t.Fatalf("SpliceText: %v", err)
	}
	got, _, err := d.GetText("note")
	if err != nil || got != "he" {
		t.Fatalf("GetText = %q, %v, want %q", got, err, "he")
	}
}

func TestSpliceTextRejectsOutOfRangePosition(t *testing.T) {
	d := New()
	if _, err := d.PutText("note", "hi"); err != nil {
		t.Fatalf("PutText: %v", err)
	}
	if _, err := d.SpliceText("note", 99, 0, "x"); !amerr.Is(err, amerr.BadArgs) {
		t.Fatalf("got %v, want BAD_ARGS", err)
	}
}
