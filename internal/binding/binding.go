// Package binding owns the Document Binding layer (spec.md §4.4): the
// in-memory registry that maps host keys to live *amdoc.Document values,
// persists snapshots through the Host abstraction, and replays a host's
// command log at startup to reconstruct documents that only exist as a
// log tail past their last snapshot.
package binding

import (
	"context"
	"sync"

	"github.com/amergekv/amergekv/internal/amdoc"
	"github.com/amergekv/amergekv/internal/amerr"
	"github.com/amergekv/amergekv/internal/host"
)

// Registry owns every document currently bound to a host key.
type Registry struct {
	host host.Host

	mu   sync.Mutex
	docs map[string]*amdoc.Document

	archive *SnapshotArchive // nil disables the optional audit archive
}

// New builds a Registry over h. archive may be nil.
func New(h host.Host, archive *SnapshotArchive) *Registry {
	return &Registry{host: h, docs: make(map[string]*amdoc.Document), archive: archive}
}

// Get returns the document bound to key, loading it from the host on
// first access. ok is false if no document is bound to key.
func (r *Registry) Get(ctx context.Context, key string) (*amdoc.Document, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(ctx, key)
}

func (r *Registry) getLocked(ctx context.Context, key string) (*amdoc.Document, bool, error) {
	if d, ok := r.docs[key]; ok {
		return d, true, nil
	}
	blob, ok, err := r.host.LoadDocument(ctx, key)
	if err != nil {
		return nil, false, amerr.Newf(amerr.HostLogError, "load document %q", key).Wrap(err)
	}
	if !ok {
		return nil, false, nil
	}
	d, err := amdoc.Load(blob)
	if err != nil {
		return nil, false, err
	}
	r.docs[key] = d
	return d, true, nil
}

// GetOrCreate returns the document bound to key, creating and binding a
// fresh empty one if none exists. The Change Protocol's APPLY uses this
// so changes for an unseen key are adopted (spec.md §4.5); the typed
// write commands do not, and report NOT_FOUND for an unbound key.
func (r *Registry) GetOrCreate(ctx context.Context, key string) (*amdoc.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok, err := r.getLocked(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return d, nil
	}
	d = amdoc.New()
	r.docs[key] = d
	return d, nil
}

// Put installs an already-constructed document under key, replacing
// whatever was there (used by the NEW, LOAD and FROMJSON commands, live
// or during startup log replay).
func (r *Registry) Put(key string, d *amdoc.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[key] = d
}

// Persist writes key's current in-memory state to the host as the
// canonical snapshot, and — if a snapshot archive is configured — also
// appends it there as an independent audit trail (spec.md §4.4
// supplement). Every mutating command calls this after committing its
// change so the host's copy never lags the in-memory one.
func (r *Registry) Persist(ctx context.Context, key string) error {
	r.mu.Lock()
	d, ok := r.docs[key]
	r.mu.Unlock()
	if !ok {
		return amerr.Newf(amerr.Internal, "persist: %q is not bound", key)
	}
	blob := d.Save()
	if err := r.host.StoreDocument(ctx, key, blob); err != nil {
		return amerr.Newf(amerr.HostLogError, "persist document %q", key).Wrap(err)
	}
	if r.archive != nil {
		if err := r.archive.Record(key, blob); err != nil {
			return amerr.Newf(amerr.HostLogError, "archive snapshot for %q", key).Wrap(err)
		}
	}
	return nil
}

// Delete unbinds key from both the in-memory registry and the host.
func (r *Registry) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	delete(r.docs, key)
	r.mu.Unlock()
	if err := r.host.DeleteKey(ctx, key); err != nil {
		return amerr.Newf(amerr.HostLogError, "delete key %q", key).Wrap(err)
	}
	return nil
}

// Exists reports whether key is currently bound, without touching the
// host (a cache-only check; callers wanting the authoritative answer
// should call Get and inspect ok).
func (r *Registry) Exists(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.docs[key]
	return ok
}

// Host returns the underlying Host, for collaborators (such as the
// shadow-index registry) that need to persist their own sibling keys
// through the same host the documents themselves are bound to.
func (r *Registry) Host() host.Host {
	return r.host
}
