// Package amdoc implements the path-addressed CRDT operations layer:
// parsing and resolving paths (spec.md §4.1), the typed read/write
// command contract (§4.2), the JSON bridge (§4.3), and mark handling.
// It treats github.com/automerge/automerge-go as the black-box CRDT
// oracle spec.md §6 describes — no merge logic is reimplemented here.
package amdoc

import (
	automerge "github.com/automerge/automerge-go"

	"github.com/amergekv/amergekv/internal/amerr"
)

// Document wraps a single Automerge document bound to one host key.
// It is not safe for concurrent use from multiple goroutines without
// external synchronization — spec.md §5 assumes the host already
// serializes command execution per key.
type Document struct {
	doc *automerge.Doc
}

// New creates an empty document whose root is a map, per spec.md §3.
func New() *Document {
	return &Document{doc: automerge.New()}
}

// Load decodes a document from its canonical Automerge save bytes.
func Load(data []byte) (*Document, error) {
	d, err := automerge.Load(data)
	if err != nil {
		return nil, amerr.New(amerr.BadArgs, "corrupt document bytes").Wrap(err)
	}
	return &Document{doc: d}, nil
}

// Save returns the document's canonical save bytes (spec.md §4.4).
func (d *Document) Save() []byte {
	return d.doc.Save()
}

// Heads returns the minimal antichain of change hashes identifying the
// document's current logical state (spec.md §3).
func (d *Document) Heads() []automerge.ChangeHash {
	return d.doc.Heads()
}

// root returns the document's root map.
func (d *Document) root() *automerge.Map {
	return d.doc.RootMap()
}

// RawDoc exposes the underlying Automerge document for packages that
// operate directly on change frames (internal/changeproto) rather than
// through the path-addressed Type Operations in this package.
func (d *Document) RawDoc() *automerge.Doc {
	return d.doc
}

// commit finalizes the pending operations of a mutation into a single
// change frame and returns its encoded bytes (nil when nothing was
// recorded). Every Type Operation write funnels through this so the
// binding/notify layers see a uniform "change frames produced" result.
func (d *Document) commit(message string) ([][]byte, error) {
	hash, err := d.doc.Commit(message)
	if err != nil {
		return nil, amerr.New(amerr.Internal, "commit").Wrap(err)
	}
	if hash.IsZero() {
		// No-op mutation (no operations were recorded): nothing to emit.
		return nil, nil
	}
	ch, err := d.doc.Change(hash)
	if err != nil {
		return nil, amerr.New(amerr.Internal, "load committed change").Wrap(err)
	}
	return [][]byte{ch.Bytes()}, nil
}
