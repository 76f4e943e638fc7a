package changeproto

import (
	"encoding/json"
	"sort"

	automerge "github.com/automerge/automerge-go"

	"github.com/amergekv/amergekv/internal/amdoc"
	"github.com/amergekv/amergekv/internal/amerr"
)

// PatchAction is the kind of edit one Patch describes.
type PatchAction string

const (
	PatchPut    PatchAction = "put"
	PatchInsert PatchAction = "insert"
	PatchDelete PatchAction = "delete"
	PatchSplice PatchAction = "splice"
	PatchInc    PatchAction = "inc"
)

// Patch is one entry of a get_diff result: a single structural edit
// between two head states, addressed by path (spec.md §4.5
// "get_diff(before, after)" — a diff-of-patches, not a diff-of-text).
type Patch struct {
	Action PatchAction `json:"action"`
	Path   string      `json:"path"`
	Value  any         `json:"value,omitempty"`
	Pos    int         `json:"pos,omitempty"`
	Del    int         `json:"del,omitempty"`
}

// GetDiff computes the ordered list of patches that transform the
// document as it stood at beforeHashes into the document as it stood at
// afterHashes. Both head sets must already be represented in doc's
// history (typically obtained from two prior Save calls, or from two
// points noted via Heads()).
//
// Automerge's own Diff API (automerge-go's Doc.Diff) already produces a
// structural patch list between two head sets; this function is a thin,
// deterministically-ordered and deterministically-serializable
// projection of that list onto the Patch shape above, which is what the
// wire protocol (spec.md §6 GETDIFF) actually returns to callers.
func GetDiff(d *amdoc.Document, beforeHashes, afterHashes []string) ([]Patch, error) {
	before, err := parseHashes(beforeHashes)
	if err != nil {
		return nil, err
	}
	after, err := parseHashes(afterHashes)
	if err != nil {
		return nil, err
	}
	raw := d.RawDoc()
	diffs, err := raw.Diff(before, after)
	if err != nil {
		return nil, amerr.New(amerr.BadDiff, "compute diff between head sets").Wrap(err)
	}
	patches := make([]Patch, 0, len(diffs))
	for _, op := range diffs {
		patches = append(patches, Patch{
			Action: classifyAction(op.Action),
			Path:   op.Path,
			Value:  op.Value,
			Pos:    op.Pos,
			Del:    op.DeleteCount,
		})
	}
	// automerge-go does not promise a stable emission order across calls;
	// get_diff's result must be byte-identical for byte-identical inputs
	// (spec.md §8 P6), so patches are sorted by (path, pos, action) once
	// converted to our shape.
	sort.SliceStable(patches, func(i, j int) bool {
		if patches[i].Path != patches[j].Path {
			return patches[i].Path < patches[j].Path
		}
		if patches[i].Pos != patches[j].Pos {
			return patches[i].Pos < patches[j].Pos
		}
		return patches[i].Action < patches[j].Action
	})
	return patches, nil
}

// classifyAction maps automerge-go's low-level op-type enum onto the
// five patch actions get_diff reports.
func classifyAction(opType automerge.OpType) PatchAction {
	switch opType {
	case automerge.OpTypePut:
		return PatchPut
	case automerge.OpTypeInsert:
		return PatchInsert
	case automerge.OpTypeDelete:
		return PatchDelete
	case automerge.OpTypeSplice:
		return PatchSplice
	case automerge.OpTypeIncrement:
		return PatchInc
	default:
		return PatchPut
	}
}

func parseHashes(hashes []string) ([]automerge.ChangeHash, error) {
	out := make([]automerge.ChangeHash, 0, len(hashes))
	for _, hs := range hashes {
		h, err := automerge.ParseChangeHash(hs)
		if err != nil {
			return nil, amerr.Newf(amerr.BadArgs, "malformed change hash %q", hs).Wrap(err)
		}
		out = append(out, h)
	}
	return out, nil
}

// MarshalPatches serializes a patch list to its canonical wire form: a
// JSON array of objects, field order fixed by the Patch struct tags,
// keys with zero values omitted — deterministic for a given patch slice.
func MarshalPatches(patches []Patch) ([]byte, error) {
	return json.Marshal(patches)
}
