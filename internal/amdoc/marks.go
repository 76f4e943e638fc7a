package amdoc

import (
	"strings"

	automerge "github.com/automerge/automerge-go"

	"github.com/amergekv/amergekv/internal/amerr"
)

// ParseExpand maps the command-line expansion token to the CRDT
// library's enum, defaulting to "none" (spec.md §3 Mark, §4.2).
func ParseExpand(s string) (automerge.ExpandMark, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return automerge.ExpandNone, nil
	case "before":
		return automerge.ExpandBefore, nil
	case "after":
		return automerge.ExpandAfter, nil
	case "both":
		return automerge.ExpandBoth, nil
	default:
		return 0, amerr.Newf(amerr.BadArgs, "unknown mark expansion %q", s)
	}
}

// MarkCreate applies a named annotation over [start,end) on the Text at
// path, coercing a string scalar to Text first if needed.
func (d *Document) MarkCreate(pathStr, name string, value any, start, end int, expand automerge.ExpandMark) ([][]byte, error) {
	t, err := d.ensureTextAt(pathStr)
	if err != nil {
		return nil, err
	}
	if start < 0 || end < start || end > t.Len() {
		return nil, amerr.Newf(amerr.BadArgs, "mark range [%d,%d) invalid for text of length %d", start, end, t.Len())
	}
	if err := t.Mark(start, end, expand, name, value); err != nil {
		return nil, amerr.New(amerr.Internal, "mark create").Wrap(err)
	}
	return d.commit("markcreate " + pathStr)
}

// MarkClear removes the named mark over [start,end) using the same
// expansion policy it was created with.
func (d *Document) MarkClear(pathStr, name string, start, end int, expand automerge.ExpandMark) ([][]byte, error) {
	n, ok, err := d.resolveRead(pathStr)
	if err != nil {
		return nil, err
	}
	if !ok || n.kind != KindText {
		return nil, amerr.Newf(amerr.TypeMismatch, "%s is not text", pathStr)
	}
	if err := n.t.Unmark(name, start, end, expand); err != nil {
		return nil, amerr.New(amerr.Internal, "mark clear").Wrap(err)
	}
	return d.commit("markclear " + pathStr)
}

// MarkInfo is one active mark, as returned by MarkList.
type MarkInfo struct {
	Name  string
	Value any
	Start int
	End   int
}

// MarkList returns every currently-active mark on the text at path, in
// an unspecified but call-stable order.
func (d *Document) MarkList(pathStr string) ([]MarkInfo, error) {
	n, ok, err := d.resolveRead(pathStr)
	if err != nil {
		return nil, err
	}
	if !ok || n.kind != KindText {
		return nil, nil
	}
	marks, err := n.t.Marks()
	if err != nil {
		return nil, amerr.New(amerr.Internal, "list marks").Wrap(err)
	}
	out := make([]MarkInfo, 0, len(marks))
	for _, m := range marks {
		out = append(out, MarkInfo{Name: m.Name, Value: m.Value, Start: m.Start, End: m.End})
	}
	return out, nil
}
