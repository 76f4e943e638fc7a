package amdoc

import (
	automerge "github.com/automerge/automerge-go"

	"github.com/amergekv/amergekv/internal/amerr"
)

// --- Read operations (spec.md §4.2) -----------------------------------
//
// Each returns ok=false if the path is missing or the resolved node is
// not of the requested type. Reads never error on a bad traversal.

func (d *Document) GetText(pathStr string) (string, bool, error) {
	n, ok, err := d.resolveRead(pathStr)
	if !ok || err != nil {
		return "", false, err
	}
	switch n.kind {
	case KindString:
		return n.value.Str(), true, nil
	case KindText:
		return n.t.String(), true, nil
	default:
		return "", false, nil
	}
}

func (d *Document) GetInt(pathStr string) (int64, bool, error) {
	n, ok, err := d.resolveRead(pathStr)
	if !ok || err != nil || n.kind != KindInt {
		return 0, false, err
	}
	return n.value.Int64(), true, nil
}

func (d *Document) GetDouble(pathStr string) (float64, bool, error) {
	n, ok, err := d.resolveRead(pathStr)
	if !ok || err != nil || n.kind != KindDouble {
		return 0, false, err
	}
	return n.value.Float64(), true, nil
}

func (d *Document) GetBool(pathStr string) (bool, bool, error) {
	n, ok, err := d.resolveRead(pathStr)
	if !ok || err != nil || n.kind != KindBool {
		return false, false, err
	}
	return n.value.Bool(), true, nil
}

func (d *Document) GetCounter(pathStr string) (int64, bool, error) {
	n, ok, err := d.resolveRead(pathStr)
	if !ok || err != nil || n.kind != KindCounter {
		return 0, false, err
	}
	v, gerr := n.c.Value()
	if gerr != nil {
		return 0, false, amerr.New(amerr.Internal, "read counter").Wrap(gerr)
	}
	return v, true, nil
}

func (d *Document) GetTimestamp(pathStr string) (int64, bool, error) {
	n, ok, err := d.resolveRead(pathStr)
	if !ok || err != nil || n.kind != KindTimestamp {
		return 0, false, err
	}
	return n.value.Timestamp(), true, nil
}

// ListLen returns the list length, or for a map the key count (spec.md
// testable property L5 permits either-shape symmetry); nil for scalars.
func (d *Document) ListLen(pathStr string) (int, bool, error) {
	n, ok, err := d.resolveRead(pathStr)
	if !ok || err != nil {
		return 0, false, err
	}
	switch n.kind {
	case KindList:
		return n.l.Len(), true, nil
	case KindMap:
		return n.m.Len(), true, nil
	default:
		return 0, false, nil
	}
}

// MapLen returns the key count of a map, the length of a list, or nil
// for a scalar.
func (d *Document) MapLen(pathStr string) (int, bool, error) {
	return d.ListLen(pathStr)
}

func (d *Document) resolveRead(pathStr string) (node, bool, error) {
	p, err := ParsePath(pathStr)
	if err != nil {
		return node{}, false, err
	}
	n, ok := readResolve(d.root(), p)
	return n, ok, nil
}

// --- Write operations (spec.md §4.2) ----------------------------------
//
// Each unconditionally overwrites the leaf slot, materializing parent
// maps as needed, and returns the change frames the write produced.

func (d *Document) putScalar(pathStr string, value any, msg string) ([][]byte, error) {
	p, err := ParsePath(pathStr)
	if err != nil {
		return nil, err
	}
	pm, pl, field, idx, err := writeResolve(d.root(), p)
	if err != nil {
		return nil, err
	}
	if pm != nil {
		if err := pm.Set(field, value); err != nil {
			return nil, amerr.New(amerr.Internal, "set field").Wrap(err)
		}
	} else {
		if idx < 0 || idx > pl.Len() {
			return nil, amerr.Newf(amerr.PathTypeMismatch, "index %d out of range", idx)
		}
		if idx == pl.Len() {
			if err := pl.Append(value); err != nil {
				return nil, amerr.New(amerr.Internal, "append").Wrap(err)
			}
		} else if err := pl.Set(idx, value); err != nil {
			return nil, amerr.New(amerr.Internal, "set index").Wrap(err)
		}
	}
	return d.commit(msg)
}

func (d *Document) PutText(pathStr, value string) ([][]byte, error) {
	return d.putScalar(pathStr, value, "puttext "+pathStr)
}

func (d *Document) PutInt(pathStr string, value int64) ([][]byte, error) {
	return d.putScalar(pathStr, value, "putint "+pathStr)
}

func (d *Document) PutDouble(pathStr string, value float64) ([][]byte, error) {
	return d.putScalar(pathStr, value, "putdouble "+pathStr)
}

func (d *Document) PutBool(pathStr string, value bool) ([][]byte, error) {
	return d.putScalar(pathStr, value, "putbool "+pathStr)
}

func (d *Document) PutTimestamp(pathStr string, millis int64) ([][]byte, error) {
	return d.putScalar(pathStr, automerge.Time(millis), "puttimestamp "+pathStr)
}

// PutCounter initializes or replaces the slot with a Counter CRDT node.
func (d *Document) PutCounter(pathStr string, initial int64) ([][]byte, error) {
	p, err := ParsePath(pathStr)
	if err != nil {
		return nil, err
	}
	pm, pl, field, idx, err := writeResolve(d.root(), p)
	if err != nil {
		return nil, err
	}
	if pm != nil {
		if _, err := pm.SetCounter(field, initial); err != nil {
			return nil, amerr.New(amerr.Internal, "set counter").Wrap(err)
		}
	} else {
		if _, err := pl.SetCounter(idx, initial); err != nil {
			return nil, amerr.New(amerr.Internal, "set counter").Wrap(err)
		}
	}
	return d.commit("putcounter " + pathStr)
}

// IncCounter applies a counter increment; fails with TYPE_MISMATCH if the
// existing slot is not a counter.
func (d *Document) IncCounter(pathStr string, delta int64) ([][]byte, error) {
	n, ok, err := d.resolveRead(pathStr)
	if err != nil {
		return nil, err
	}
	if !ok || n.kind != KindCounter {
		return nil, amerr.Newf(amerr.TypeMismatch, "%s is not a counter", pathStr)
	}
	if err := n.c.Increment(delta); err != nil {
		return nil, amerr.New(amerr.Internal, "increment counter").Wrap(err)
	}
	return d.commit("inccounter " + pathStr)
}

// CreateList creates an empty list at the slot; fails if the slot exists
// and is not a list.
func (d *Document) CreateList(pathStr string) ([][]byte, error) {
	existing, ok, err := d.resolveRead(pathStr)
	if err != nil {
		return nil, err
	}
	if ok && existing.kind != KindList {
		return nil, amerr.Newf(amerr.TypeMismatch, "%s already exists and is not a list", pathStr)
	}
	p, err := ParsePath(pathStr)
	if err != nil {
		return nil, err
	}
	pm, pl, field, idx, err := writeResolve(d.root(), p)
	if err != nil {
		return nil, err
	}
	if pm != nil {
		if _, err := pm.SetList(field); err != nil {
			return nil, amerr.New(amerr.Internal, "create list").Wrap(err)
		}
	} else {
		if _, err := pl.SetList(idx); err != nil {
			return nil, amerr.New(amerr.Internal, "create list").Wrap(err)
		}
	}
	return d.commit("createlist " + pathStr)
}

func (d *Document) appendScalar(pathStr string, value any, msg string) ([][]byte, error) {
	n, ok, err := d.resolveRead(pathStr)
	if err != nil {
		return nil, err
	}
	if !ok || n.kind != KindList {
		return nil, amerr.Newf(amerr.TypeMismatch, "%s is not a list", pathStr)
	}
	if err := n.l.Append(value); err != nil {
		return nil, amerr.New(amerr.Internal, "append to list").Wrap(err)
	}
	return d.commit(msg)
}

func (d *Document) AppendText(pathStr, value string) ([][]byte, error) {
	return d.appendScalar(pathStr, value, "appendtext "+pathStr)
}

func (d *Document) AppendInt(pathStr string, value int64) ([][]byte, error) {
	return d.appendScalar(pathStr, value, "appendint "+pathStr)
}

func (d *Document) AppendDouble(pathStr string, value float64) ([][]byte, error) {
	return d.appendScalar(pathStr, value, "appenddouble "+pathStr)
}

func (d *Document) AppendBool(pathStr string, value bool) ([][]byte, error) {
	return d.appendScalar(pathStr, value, "appendbool "+pathStr)
}

// Delete removes the slot identified by the terminal segment of path — a
// map field or a list index (list shifts). Removing the root or a
// non-existent slot is a no-op returning zero.
func (d *Document) Delete(pathStr string) (int, [][]byte, error) {
	p, err := ParsePath(pathStr)
	if err != nil {
		return 0, nil, err
	}
	if len(p) == 0 {
		return 0, nil, nil
	}
	existing, ok := readResolve(d.root(), p)
	_ = existing
	if !ok {
		return 0, nil, nil
	}
	pm, pl, field, idx, err := writeResolve(d.root(), p)
	if err != nil {
		return 0, nil, err
	}
	if pm != nil {
		if err := pm.Delete(field); err != nil {
			return 0, nil, amerr.New(amerr.Internal, "delete field").Wrap(err)
		}
	} else {
		if idx < 0 || idx >= pl.Len() {
			return 0, nil, nil
		}
		if err := pl.Delete(idx); err != nil {
			return 0, nil, amerr.New(amerr.Internal, "delete index").Wrap(err)
		}
	}
	frames, err := d.commit("delete " + pathStr)
	if err != nil {
		return 0, nil, err
	}
	return 1, frames, nil
}

// SpliceText removes del code points at pos and inserts text, on a Text
// node auto-coerced from a string scalar (spec.md §4.2). del is clamped
// to the available length past pos, trading strictness for robustness to
// concurrent shortening.
func (d *Document) SpliceText(pathStr string, pos, del int, text string) ([][]byte, error) {
	t, err := d.ensureTextAt(pathStr)
	if err != nil {
		return nil, err
	}
	length := t.Len()
	if pos < 0 || pos > length {
		return nil, amerr.Newf(amerr.BadArgs, "splice position %d out of range [0,%d]", pos, length)
	}
	if del < 0 {
		return nil, amerr.Newf(amerr.BadArgs, "negative delete count %d", del)
	}
	if del > length-pos {
		del = length - pos
	}
	if err := t.Splice(pos, del, text); err != nil {
		return nil, amerr.New(amerr.Internal, "splice text").Wrap(err)
	}
	return d.commit("splicetext " + pathStr)
}

// ensureTextAt resolves path to a Text node, upgrading a plain string
// scalar in place (spec.md §9 "ensure_text_at") if that's what's there.
// Used by both splice and mark commands.
func (d *Document) ensureTextAt(pathStr string) (*automerge.Text, error) {
	p, err := ParsePath(pathStr)
	if err != nil {
		return nil, err
	}
	n, ok := readResolve(d.root(), p)
	if ok && n.kind == KindText {
		return n.t, nil
	}
	var seed string
	if ok && n.kind == KindString {
		seed = n.value.Str()
	} else if ok {
		return nil, amerr.Newf(amerr.TypeMismatch, "%s is not text", pathStr)
	}
	pm, pl, field, idx, err := writeResolve(d.root(), p)
	if err != nil {
		return nil, err
	}
	if pm != nil {
		t, err := pm.SetText(field, seed)
		if err != nil {
			return nil, amerr.New(amerr.Internal, "coerce to text").Wrap(err)
		}
		return t, nil
	}
	t, err := pl.SetText(idx, seed)
	if err != nil {
		return nil, amerr.New(amerr.Internal, "coerce to text").Wrap(err)
	}
	return t, nil
}
