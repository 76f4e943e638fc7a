package cmdtable

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/amergekv/amergekv/internal/amerr"
	"github.com/amergekv/amergekv/internal/binding"
	"github.com/amergekv/amergekv/internal/changeproto"
	"github.com/amergekv/amergekv/internal/host"
	"github.com/amergekv/amergekv/internal/notify"
	"github.com/amergekv/amergekv/internal/shadowindex"
)

func newTestTable(t *testing.T) (*Table, *host.MemHost) {
	t.Helper()
	h, err := host.NewMemHost("")
	if err != nil {
		t.Fatalf("NewMemHost: %v", err)
	}
	reg := binding.New(h, nil)
	shadow := shadowindex.NewRegistry()
	engine := shadowindex.NewEngine(shadow, h, 1000, 1000)
	n := notify.New(h, nil)
	return New(reg, shadow, engine, n, nil), h
}

func mustExec(t *testing.T, tbl *Table, cmd string, args ...string) any {
	t.Helper()
	reply, err := tbl.Execute(context.Background(), cmd, args)
	if err != nil {
		t.Fatalf("%s %v: %v", cmd, args, err)
	}
	return reply
}

// Scenario 1: nested create + counter sync.
func TestScenarioCounterSync(t *testing.T) {
	tbl, _ := newTestTable(t)
	mustExec(t, tbl, "NEW", "k")
	mustExec(t, tbl, "PUTCOUNTER", "k", "views", "0")
	mustExec(t, tbl, "INCCOUNTER", "k", "views", "5")
	mustExec(t, tbl, "INCCOUNTER", "k", "views", "3")
	if got := mustExec(t, tbl, "GETCOUNTER", "k", "views"); got != int64(8) {
		t.Fatalf("GETCOUNTER = %v, want 8", got)
	}
	mustExec(t, tbl, "INCCOUNTER", "k", "views", "-2")
	if got := mustExec(t, tbl, "GETCOUNTER", "k", "views"); got != int64(6) {
		t.Fatalf("GETCOUNTER = %v, want 6", got)
	}
}

// Scenario 2: text with splice.
func TestScenarioTextSplice(t *testing.T) {
	tbl, _ := newTestTable(t)
	mustExec(t, tbl, "NEW", "k")
	mustExec(t, tbl, "PUTTEXT", "k", "g", "Hello World")
	mustExec(t, tbl, "SPLICETEXT", "k", "g", "6", "5", "Rust")
	if got := mustExec(t, tbl, "GETTEXT", "k", "g"); got != "Hello Rust" {
		t.Fatalf("GETTEXT = %q, want %q", got, "Hello Rust")
	}
}

// Scenario 3: mark with auto-text-coercion.
func TestScenarioMarkAutoCoercion(t *testing.T) {
	tbl, _ := newTestTable(t)
	mustExec(t, tbl, "NEW", "k")
	mustExec(t, tbl, "PUTTEXT", "k", "content", "Hello World")
	mustExec(t, tbl, "MARKCREATE", "k", "content", "bold", "true", "0", "5")
	list := mustExec(t, tbl, "MARKS", "k", "content")
	b, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("marshal marks: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal marks: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected exactly one mark, got %d: %s", len(decoded), b)
	}
	m := decoded[0]
	if m["Name"] != "bold" || m["Value"] != true || m["Start"] != float64(0) || m["End"] != float64(5) {
		t.Fatalf("unexpected mark: %s", b)
	}
}

// Scenario 4: JSON import/export round trip.
func TestScenarioJSONRoundTrip(t *testing.T) {
	tbl, _ := newTestTable(t)
	mustExec(t, tbl, "FROMJSON", "k", `{"name":"Alice","age":30,"tags":["r","v"]}`)
	reply := mustExec(t, tbl, "TOJSON", "k")
	blob, ok := reply.([]byte)
	if !ok {
		t.Fatalf("TOJSON reply type = %T", reply)
	}
	var got map[string]any
	if err := json.Unmarshal(blob, &got); err != nil {
		t.Fatalf("unmarshal TOJSON output: %v", err)
	}
	if got["name"] != "Alice" {
		t.Fatalf("name = %v", got["name"])
	}
	if got["age"] != float64(30) {
		t.Fatalf("age = %v", got["age"])
	}
	tags, ok := got["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "r" || tags[1] != "v" {
		t.Fatalf("tags = %v", got["tags"])
	}
}

// Scenario 5: diff between heads.
func TestScenarioGetDiffBetweenHeads(t *testing.T) {
	tbl, _ := newTestTable(t)
	mustExec(t, tbl, "NEW", "k")
	mustExec(t, tbl, "PUTTEXT", "k", "name", "Alpha")

	changesReply := mustExec(t, tbl, "CHANGES", "k")
	frames, ok := changesReply.([][]byte)
	if !ok {
		t.Fatalf("CHANGES reply type = %T", changesReply)
	}
	d, ok2, err := tbl.Registry.Get(context.Background(), "k")
	if err != nil || !ok2 {
		t.Fatalf("Get k: ok=%v err=%v", ok2, err)
	}
	h1 := d.Heads()
	if len(h1) != 1 {
		t.Fatalf("expected a single head after one commit, got %d", len(h1))
	}
	_ = frames

	mustExec(t, tbl, "PUTTEXT", "k", "name", "Beta")

	reply := mustExec(t, tbl, "GETDIFF", "k", "BEFORE", h1[0].String(), "AFTER")
	blob, ok := reply.([]byte)
	if !ok {
		t.Fatalf("GETDIFF reply type = %T", reply)
	}
	var patches []changeproto.Patch
	if err := json.Unmarshal(blob, &patches); err != nil {
		t.Fatalf("unmarshal patches: %v", err)
	}
	if len(patches) != 1 {
		t.Fatalf("expected a single patch, got %d: %s", len(patches), blob)
	}
	if patches[0].Action != changeproto.PatchPut || patches[0].Path != "name" || patches[0].Value != "Beta" {
		t.Fatalf("unexpected patch: %+v", patches[0])
	}
}

// Scenario 6: shadow projection, flat format.
func TestScenarioShadowProjectionFlat(t *testing.T) {
	tbl, h := newTestTable(t)
	mustExec(t, tbl, "INDEX.CONFIGURE", "article:*", "title", "author.name")
	mustExec(t, tbl, "NEW", "article:1")
	mustExec(t, tbl, "PUTTEXT", "article:1", "title", "T")
	mustExec(t, tbl, "PUTTEXT", "article:1", "author.name", "A")

	fields, ok, err := h.GetBytesMap(context.Background(), shadowindex.IndexKey("article:1"))
	if err != nil {
		t.Fatalf("GetBytesMap: %v", err)
	}
	if !ok {
		t.Fatalf("expected idx:article:1 to exist")
	}
	if fields["title"] != "T" || fields["author_name"] != "A" {
		t.Fatalf("unexpected shadow fields: %v", fields)
	}
}

// P7: a subscriber of changes:<K> sees the change before the caller
// observes the command's reply, since Announce runs synchronously
// inside mutate before Execute returns.
func TestPublishBeforeReplyOrdering(t *testing.T) {
	tbl, h := newTestTable(t)
	mustExec(t, tbl, "NEW", "k")
	sub := h.Subscribe(notify.ChannelFor("k"))

	mustExec(t, tbl, "PUTTEXT", "k", "g", "hi")

	select {
	case <-sub:
	default:
		t.Fatalf("expected a published frame to already be waiting once Execute returned")
	}
}

func TestDeleteReturnsRemovedCount(t *testing.T) {
	tbl, _ := newTestTable(t)
	mustExec(t, tbl, "NEW", "k")
	mustExec(t, tbl, "PUTTEXT", "k", "g", "hi")
	if got := mustExec(t, tbl, "DELETE", "k", "g"); got != 1 {
		t.Fatalf("DELETE = %v, want 1", got)
	}
	if got := mustExec(t, tbl, "DELETE", "k", "g"); got != 0 {
		t.Fatalf("DELETE again = %v, want 0", got)
	}
}

func TestUnknownCommandIsBadArgs(t *testing.T) {
	tbl, _ := newTestTable(t)
	_, err := tbl.Execute(context.Background(), "BOGUS", nil)
	if !amerr.Is(err, amerr.BadArgs) {
		t.Fatalf("got %v, want BAD_ARGS for an unknown command", err)
	}
}

func TestMutateOnUnboundKeyIsNotFound(t *testing.T) {
	tbl, _ := newTestTable(t)
	_, err := tbl.Execute(context.Background(), "PUTTEXT", []string{"missing", "g", "hi"})
	if !amerr.Is(err, amerr.NotFound) {
		t.Fatalf("got %v, want NOT_FOUND for an unbound key", err)
	}
}
