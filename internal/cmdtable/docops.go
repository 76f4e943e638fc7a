package cmdtable

import (
	"context"
	"strings"

	"github.com/amergekv/amergekv/internal/amdoc"
	"github.com/amergekv/amergekv/internal/amerr"
	"github.com/amergekv/amergekv/internal/changeproto"
)

func registerDocHandlers(m map[string]handlerFunc) {
	m["NEW"] = cmdNew
	m["SAVE"] = cmdSave
	m["LOAD"] = cmdLoad
	m["APPLY"] = cmdApply
	m["CHANGES"] = cmdChanges
	m["NUMCHANGES"] = cmdNumChanges
	m["GETDIFF"] = cmdGetDiff
	m["TOJSON"] = cmdToJSON
	m["FROMJSON"] = cmdFromJSON
	m["DELETE"] = cmdDelete
}

func cmdNew(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("NEW", args, 1); err != nil {
		return nil, err
	}
	key := args[0]
	d := amdoc.New()
	t.Registry.Put(key, d)
	if err := t.Registry.Persist(ctx, key); err != nil {
		return nil, err
	}
	return OK, nil
}

func cmdSave(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("SAVE", args, 1); err != nil {
		return nil, err
	}
	d, ok, err := t.Registry.Get(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, amerr.Newf(amerr.NotFound, "key %q is not a document", args[0])
	}
	return changeproto.Save(d), nil
}

func cmdLoad(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("LOAD", args, 2); err != nil {
		return nil, err
	}
	key, blob := args[0], []byte(args[1])
	d, err := changeproto.Load(blob)
	if err != nil {
		return nil, err
	}
	t.Registry.Put(key, d)
	if err := t.Registry.Persist(ctx, key); err != nil {
		return nil, err
	}
	return OK, nil
}

// cmdApply auto-creates an empty document for an unseen key, the Change
// Protocol's sync-friendly counterpart to Type Operations' NOT_FOUND
// requirement (spec.md §9 open question, resolved in DESIGN.md): a
// replica receiving changes for a key it has never heard of should just
// adopt it rather than erroring.
func cmdApply(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("APPLY", args, 1); err != nil {
		return nil, err
	}
	key := args[0]
	frames := make([][]byte, 0, len(args)-1)
	for _, a := range args[1:] {
		frames = append(frames, []byte(a))
	}
	d, err := t.Registry.GetOrCreate(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := changeproto.Apply(d, frames); err != nil {
		return nil, err
	}
	if err := t.Registry.Persist(ctx, key); err != nil {
		return nil, err
	}
	if len(frames) > 0 {
		if err := t.Notifier.Announce(ctx, key, "APPLY", frames); err != nil {
			t.Logger.Error("post-commit announce failed", "cmd", "APPLY", "key", key, "err", err)
		}
		if t.Engine != nil {
			if _, err := t.Engine.Reindex(ctx, key, d); err != nil {
				t.Logger.Error("post-commit reindex failed", "cmd", "APPLY", "key", key, "err", err)
			}
		}
	}
	return len(frames), nil
}

func cmdChanges(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("CHANGES", args, 1); err != nil {
		return nil, err
	}
	d, ok, err := t.Registry.Get(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, amerr.Newf(amerr.NotFound, "key %q is not a document", args[0])
	}
	return changeproto.Changes(d, args[1:]), nil
}

func cmdNumChanges(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("NUMCHANGES", args, 1); err != nil {
		return nil, err
	}
	d, ok, err := t.Registry.Get(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, amerr.Newf(amerr.NotFound, "key %q is not a document", args[0])
	}
	return changeproto.NumChanges(d), nil
}

// cmdGetDiff parses `key BEFORE hash... AFTER hash...` per spec.md §6.
func cmdGetDiff(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("GETDIFF", args, 3); err != nil {
		return nil, err
	}
	key := args[0]
	beforeIdx := -1
	afterIdx := -1
	for i, a := range args[1:] {
		switch strings.ToUpper(a) {
		case "BEFORE":
			beforeIdx = i + 1
		case "AFTER":
			afterIdx = i + 1
		}
	}
	if beforeIdx == -1 || afterIdx == -1 || afterIdx < beforeIdx {
		return nil, amerr.New(amerr.BadArgs, "GETDIFF requires key BEFORE hash... AFTER hash...")
	}
	before := args[beforeIdx+1 : afterIdx]
	after := args[afterIdx+1:]

	d, ok, err := t.Registry.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, amerr.Newf(amerr.NotFound, "key %q is not a document", key)
	}
	// An empty AFTER clause means "the document's current heads" (spec.md
	// §6 GETDIFF) rather than the empty document.
	if len(after) == 0 {
		for _, h := range d.Heads() {
			after = append(after, h.String())
		}
	}
	patches, err := changeproto.GetDiff(d, before, after)
	if err != nil {
		return nil, err
	}
	return changeproto.MarshalPatches(patches)
}

func cmdToJSON(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("TOJSON", args, 1); err != nil {
		return nil, err
	}
	d, ok, err := t.Registry.Get(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, amerr.Newf(amerr.NotFound, "key %q is not a document", args[0])
	}
	pretty := len(args) > 1 && isPrettyFlag(args[1])
	return d.ToJSON(pretty)
}

// isPrettyFlag recognizes TOJSON's trailing pretty-print token (spec.md
// §4.3): only these case-insensitive literals opt in, any other trailing
// argument (e.g. "false") leaves the reply compact.
func isPrettyFlag(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func cmdFromJSON(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("FROMJSON", args, 2); err != nil {
		return nil, err
	}
	key := args[0]
	d, err := amdoc.FromJSON([]byte(args[1]))
	if err != nil {
		return nil, err
	}
	t.Registry.Put(key, d)
	if err := t.Registry.Persist(ctx, key); err != nil {
		return nil, err
	}
	return OK, nil
}

func cmdDelete(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("DELETE", args, 2); err != nil {
		return nil, err
	}
	key, path := args[0], args[1]
	var count int
	err := t.mutate(ctx, "DELETE", key, func(d *amdoc.Document) ([][]byte, error) {
		n, frames, err := d.Delete(path)
		count = n
		return frames, err
	})
	if err != nil {
		return nil, err
	}
	return count, nil
}

