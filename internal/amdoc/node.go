package amdoc

import automerge "github.com/automerge/automerge-go"

// Kind is the tagged-sum discriminant spec.md §9 calls for: every read
// and projection path branches on this tag instead of doing ad hoc type
// assertions against the CRDT library's value type.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindDouble
	KindBool
	KindCounter
	KindTimestamp
	KindText
	KindMap
	KindList
)

// node is the internal representation of "wherever path resolution
// landed": either a container (Map/List/Text/Counter) or a resolved
// scalar automerge.Value. Keeping this as its own small type means only
// this file needs to know the exact shape of automerge.Value's API.
type node struct {
	kind  Kind
	value *automerge.Value
	m     *automerge.Map
	l     *automerge.List
	t     *automerge.Text
	c     *automerge.Counter
}

func mapNode(m *automerge.Map) node {
	return node{kind: KindMap, m: m}
}

// nodeFromValue classifies an automerge.Value returned by Get/Append/etc.
// into our tagged-sum node.
func nodeFromValue(v *automerge.Value) node {
	switch v.Kind() {
	case automerge.KindMap:
		return node{kind: KindMap, value: v, m: v.Map()}
	case automerge.KindList:
		return node{kind: KindList, value: v, l: v.List()}
	case automerge.KindText:
		return node{kind: KindText, value: v, t: v.Text()}
	case automerge.KindCounter:
		return node{kind: KindCounter, value: v, c: v.Counter()}
	case automerge.KindStr:
		return node{kind: KindString, value: v}
	case automerge.KindInt:
		return node{kind: KindInt, value: v}
	case automerge.KindFloat:
		return node{kind: KindDouble, value: v}
	case automerge.KindBool:
		return node{kind: KindBool, value: v}
	case automerge.KindTimestamp:
		return node{kind: KindTimestamp, value: v}
	default:
		return node{kind: KindNull, value: v}
	}
}
