// Package changeproto implements the Change Protocol (spec.md §4.5): the
// commands a replica or sync client uses to exchange Automerge change
// frames with a document instead of (or in addition to) path-addressed
// commands — num_changes, changes(have), apply, save/load, and
// get_diff(before, after).
package changeproto

import (
	automerge "github.com/automerge/automerge-go"

	"github.com/amergekv/amergekv/internal/amdoc"
	"github.com/amergekv/amergekv/internal/amerr"
)

// NumChanges reports how many changes the document's history contains.
func NumChanges(d *amdoc.Document) int {
	return len(Changes(d, nil))
}

// Changes returns every change frame in the document's history not
// dominated by any hash in haveHashes — i.e. the frames a peer whose
// heads are haveHashes would still need to catch up (spec.md §4.5
// "changes(have_hashes)": "the set of changes ... not dominated by any
// hash in have_hashes"). A nil/empty haveHashes returns the full history
// in causal order. Dominance is transitive: a change whose own hash
// isn't listed but that is an ancestor of a listed hash must still be
// excluded, so this defers to automerge-go's own heads-aware Changes,
// rather than filtering by hash membership alone.
func Changes(d *amdoc.Document, haveHashes []string) [][]byte {
	raw := d.RawDoc()
	have := make([]automerge.ChangeHash, 0, len(haveHashes))
	for _, hs := range haveHashes {
		if h, err := automerge.ParseChangeHash(hs); err == nil {
			have = append(have, h)
		}
	}
	var out [][]byte
	for _, h := range raw.Changes(have...) {
		ch, err := raw.Change(h)
		if err != nil {
			continue
		}
		out = append(out, ch.Bytes())
	}
	return out
}

// Apply ingests change frames produced by Changes (or by any other
// writer command) and folds them into the document. It is idempotent —
// applying a change whose hash the document already has is a no-op —
// and rejects a change whose dependencies are not already present with
// MISSING_DEPS rather than silently buffering it (spec.md §4.5).
func Apply(d *amdoc.Document, frames [][]byte) error {
	raw := d.RawDoc()
	for i, frame := range frames {
		ch, err := automerge.LoadChange(frame)
		if err != nil {
			return amerr.Newf(amerr.BadArgs, "change frame %d is not a valid change", i).Wrap(err)
		}
		for _, dep := range ch.Deps() {
			if _, err := raw.Change(dep); err != nil {
				return amerr.Newf(amerr.MissingDeps, "change %s depends on missing change %s", ch.Hash(), dep).
					WithDetail("change", ch.Hash().String()).
					WithDetail("missing_dep", dep.String())
			}
		}
		if err := raw.Apply(ch); err != nil {
			return amerr.Newf(amerr.Internal, "apply change %s", ch.Hash()).Wrap(err)
		}
	}
	return nil
}

// Load decodes a document from its canonical save bytes — a thin
// re-export so callers driving the change protocol don't need to import
// amdoc separately for this one call.
func Load(data []byte) (*amdoc.Document, error) {
	return amdoc.Load(data)
}

// Save returns the document's canonical save bytes.
func Save(d *amdoc.Document) []byte {
	return d.Save()
}
