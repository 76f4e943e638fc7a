package amdoc

import (
	automerge "github.com/automerge/automerge-go"

	"github.com/amergekv/amergekv/internal/amerr"
)

// readResolve walks existing nodes only (spec §4.1 "Read resolution"):
// the first missing segment, or a type mismatch along the way, yields
// ok=false rather than an error — reads never error on a bad traversal.
func readResolve(root *automerge.Map, path Path) (node, bool) {
	cur := mapNode(root)
	for _, seg := range path {
		var v *automerge.Value
		var err error
		switch seg.Kind {
		case SegField:
			if cur.kind != KindMap {
				return node{}, false
			}
			v, err = cur.m.Get(seg.Field)
		case SegIndex:
			if cur.kind != KindList {
				return node{}, false
			}
			if seg.Index < 0 || seg.Index >= cur.l.Len() {
				return node{}, false
			}
			v, err = cur.l.Get(seg.Index)
		}
		if err != nil || v == nil {
			return node{}, false
		}
		cur = nodeFromValue(v)
	}
	return cur, true
}

// writeResolve walks existing nodes, materializing missing map fields as
// empty maps on the way down, and returns the parent container plus the
// terminal locator (spec §4.1 "Write resolution"). Traversing through a
// scalar, indexing a map, or field-accessing a list fails with
// PATH_TYPE_MISMATCH. The terminal segment itself is not materialized —
// callers write it with the appropriate typed setter.
func writeResolve(root *automerge.Map, path Path) (parentMap *automerge.Map, parentList *automerge.List, field string, index int, err error) {
	if len(path) == 0 {
		return nil, nil, "", 0, amerr.New(amerr.PathTypeMismatch, "cannot write to the root itself")
	}
	cur := mapNode(root)

	for i, seg := range path {
		if i == len(path)-1 {
			switch cur.kind {
			case KindMap:
				if seg.Kind != SegField {
					return nil, nil, "", 0, amerr.Newf(amerr.PathTypeMismatch, "cannot index a map at %s", path[:i+1])
				}
				return cur.m, nil, seg.Field, 0, nil
			case KindList:
				if seg.Kind != SegIndex {
					return nil, nil, "", 0, amerr.Newf(amerr.PathTypeMismatch, "cannot field-access a list at %s", path[:i+1])
				}
				return nil, cur.l, "", seg.Index, nil
			default:
				return nil, nil, "", 0, amerr.Newf(amerr.PathTypeMismatch, "cannot traverse through scalar at %s", path[:i])
			}
		}
		switch cur.kind {
		case KindMap:
			if seg.Kind != SegField {
				return nil, nil, "", 0, amerr.Newf(amerr.PathTypeMismatch, "cannot index a map at %s", path[:i+1])
			}
			v, getErr := cur.m.Get(seg.Field)
			if getErr != nil {
				return nil, nil, "", 0, amerr.Newf(amerr.Internal, "read %s", path[:i+1]).Wrap(getErr)
			}
			if v == nil {
				nm, setErr := cur.m.SetMap(seg.Field)
				if setErr != nil {
					return nil, nil, "", 0, amerr.Newf(amerr.Internal, "materialize %s", path[:i+1]).Wrap(setErr)
				}
				cur = mapNode(nm)
				continue
			}
			cur = nodeFromValue(v)
		case KindList:
			if seg.Kind != SegIndex {
				return nil, nil, "", 0, amerr.Newf(amerr.PathTypeMismatch, "cannot field-access a list at %s", path[:i+1])
			}
			if seg.Index < 0 || seg.Index >= cur.l.Len() {
				return nil, nil, "", 0, amerr.Newf(amerr.PathTypeMismatch, "index %d out of range at %s", seg.Index, path[:i+1])
			}
			v, getErr := cur.l.Get(seg.Index)
			if getErr != nil {
				return nil, nil, "", 0, amerr.Newf(amerr.Internal, "read %s", path[:i+1]).Wrap(getErr)
			}
			cur = nodeFromValue(v)
		default:
			return nil, nil, "", 0, amerr.Newf(amerr.PathTypeMismatch, "cannot traverse through scalar at %s", path[:i+1])
		}
		if cur.kind != KindMap && cur.kind != KindList {
			return nil, nil, "", 0, amerr.Newf(amerr.PathTypeMismatch, "cannot traverse through scalar at %s", path[:i+1])
		}
	}
	// len(path) == 1 is handled by the loop's first-iteration last check.
	return nil, nil, "", 0, amerr.New(amerr.Internal, "writeResolve: unreachable")
}
