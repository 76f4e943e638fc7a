package shadowindex

import (
	"strconv"
	"strings"

	"github.com/amergekv/amergekv/internal/amdoc"
)

// fieldName flattens a path surface (e.g. "$.author.name", "tags[0]")
// into a Hash-safe field name by replacing path punctuation with
// underscores, matching extract_indexed_fields's flattening rule.
func fieldName(path string) string {
	s := strings.TrimPrefix(path, "$.")
	s = strings.TrimPrefix(s, "$")
	s = strings.NewReplacer(".", "_", "[", "_", "]", "").Replace(s)
	return s
}

// readScalar resolves path to its string representation, trying each
// scalar reader in turn; ok is false if the path is missing or resolves
// to a container (Map/List), which Flat projection skips rather than
// stringifying.
func readScalar(d *amdoc.Document, path string) (string, bool) {
	if v, ok, err := d.GetText(path); err == nil && ok {
		return v, true
	}
	if v, ok, err := d.GetInt(path); err == nil && ok {
		return strconv.FormatInt(v, 10), true
	}
	if v, ok, err := d.GetDouble(path); err == nil && ok {
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	if v, ok, err := d.GetBool(path); err == nil && ok {
		return strconv.FormatBool(v), true
	}
	if v, ok, err := d.GetCounter(path); err == nil && ok {
		return strconv.FormatInt(v, 10), true
	}
	if v, ok, err := d.GetTimestamp(path); err == nil && ok {
		return strconv.FormatInt(v, 10), true
	}
	return "", false
}

// readTyped resolves path to a Go value preserving its native type, for
// Structured projection — an int stays a JSON number, a bool stays a
// JSON bool, and so on.
func readTyped(d *amdoc.Document, path string) (any, bool) {
	if v, ok, err := d.GetText(path); err == nil && ok {
		return v, true
	}
	if v, ok, err := d.GetInt(path); err == nil && ok {
		return v, true
	}
	if v, ok, err := d.GetDouble(path); err == nil && ok {
		return v, true
	}
	if v, ok, err := d.GetBool(path); err == nil && ok {
		return v, true
	}
	if v, ok, err := d.GetCounter(path); err == nil && ok {
		return v, true
	}
	return nil, false
}

// ProjectFlat builds the Hash-shaped projection: one flattened field per
// configured path that currently resolves to a scalar. Paths that are
// missing, or that resolve to a container, are omitted — mirroring
// extract_indexed_fields's "skip missing/non-scalar" behavior.
func ProjectFlat(d *amdoc.Document, paths []string) map[string]string {
	out := make(map[string]string)
	for _, p := range paths {
		if v, ok := readScalar(d, p); ok {
			out[fieldName(p)] = v
		}
	}
	return out
}

// ProjectStructured builds the JSON-shaped projection: each configured
// path is split on '.' and inserted into a nested object, preserving the
// structure the path implies (build_json_document's behavior).
func ProjectStructured(d *amdoc.Document, paths []string) map[string]any {
	root := make(map[string]any)
	for _, p := range paths {
		v, ok := readTyped(d, p)
		if !ok {
			continue
		}
		clean := strings.TrimPrefix(strings.TrimPrefix(p, "$."), "$")
		segs := strings.Split(clean, ".")
		insertNested(root, segs, v)
	}
	return root
}

// insertNested inserts v at the nested location segs describes,
// overwriting any non-object value found partway down the path — a
// benign conflict-resolution choice carried over from the original
// implementation rather than an error, since index projections are
// best-effort.
func insertNested(root map[string]any, segs []string, v any) {
	if len(segs) == 0 {
		return
	}
	if len(segs) == 1 {
		root[segs[0]] = v
		return
	}
	key, rest := segs[0], segs[1:]
	nested, ok := root[key].(map[string]any)
	if !ok {
		nested = make(map[string]any)
		root[key] = nested
	}
	insertNested(nested, rest, v)
}
