package amdoc

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	automerge "github.com/automerge/automerge-go"

	"github.com/amergekv/amergekv/internal/amerr"
)

// ToJSON performs the deep conversion from spec.md §4.3: maps→objects,
// lists→arrays, text→string (marks ignored), scalars pass through,
// counter→number, timestamp→ISO-8601 UTC string.
func (d *Document) ToJSON(pretty bool) ([]byte, error) {
	v, err := nodeToJSON(mapNode(d.root()))
	if err != nil {
		return nil, err
	}
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func nodeToJSON(n node) (any, error) {
	switch n.kind {
	case KindMap:
		keys := n.m.Keys()
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			v, err := n.m.Get(k)
			if err != nil {
				return nil, amerr.Newf(amerr.Internal, "read map field %q", k).Wrap(err)
			}
			jv, err := nodeToJSON(nodeFromValue(v))
			if err != nil {
				return nil, err
			}
			out[k] = jv
		}
		return out, nil
	case KindList:
		length := n.l.Len()
		out := make([]any, length)
		for i := range length {
			v, err := n.l.Get(i)
			if err != nil {
				return nil, amerr.Newf(amerr.Internal, "read list index %d", i).Wrap(err)
			}
			jv, err := nodeToJSON(nodeFromValue(v))
			if err != nil {
				return nil, err
			}
			out[i] = jv
		}
		return out, nil
	case KindText:
		return n.t.String(), nil
	case KindString:
		return n.value.Str(), nil
	case KindInt:
		return n.value.Int64(), nil
	case KindDouble:
		return n.value.Float64(), nil
	case KindBool:
		return n.value.Bool(), nil
	case KindCounter:
		val, err := n.c.Value()
		if err != nil {
			return nil, amerr.New(amerr.Internal, "read counter").Wrap(err)
		}
		return val, nil
	case KindTimestamp:
		return formatTimestamp(n.value.Timestamp()), nil
	default:
		return nil, nil
	}
}

// formatTimestamp renders an epoch-millisecond timestamp as ISO-8601 UTC,
// omitting sub-second precision when it's zero (spec.md §4.3).
func formatTimestamp(millis int64) string {
	t := time.UnixMilli(millis).UTC()
	if millis%1000 == 0 {
		return t.Format("2006-01-02T15:04:05+00:00")
	}
	return t.Format("2006-01-02T15:04:05.000+00:00")
}

// FromJSON replaces the document with a fresh one built from json. The
// root must be an object. Number literals with no fractional part and no
// exponent become integer slots; everything else becomes a double slot.
// Strings become text *scalars* (not Text objects) — editing commands
// upgrade them in place when first needed (spec.md §9).
func FromJSON(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, amerr.New(amerr.BadJSON, "invalid JSON").Wrap(err)
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, amerr.New(amerr.BadJSON, "JSON root must be an object")
	}
	d := New()
	if err := populateMap(d.root(), obj); err != nil {
		return nil, err
	}
	if _, err := d.commit("fromjson"); err != nil {
		return nil, err
	}
	return d, nil
}

func populateMap(m *automerge.Map, obj map[string]any) error {
	for k, v := range obj {
		if err := setJSONValue(func(val any) error { return m.Set(k, val) },
			func() (*automerge.Map, error) { return m.SetMap(k) },
			func() (*automerge.List, error) { return m.SetList(k) },
			v); err != nil {
			return amerr.Newf(amerr.BadJSON, "field %q", k).Wrap(err)
		}
	}
	return nil
}

func populateList(l *automerge.List, arr []any) error {
	for _, v := range arr {
		if err := setJSONValue(
			func(val any) error { return l.Append(val) },
			func() (*automerge.Map, error) { return l.AppendMap() },
			func() (*automerge.List, error) { return l.AppendList() },
			v); err != nil {
			return err
		}
	}
	return nil
}

// setJSONValue dispatches a decoded JSON value to the right typed
// constructor: setScalar for null/bool/number/string, setMap/setList for
// nested containers (then recurses to fill them).
func setJSONValue(setScalar func(any) error, setMap func() (*automerge.Map, error), setList func() (*automerge.List, error), v any) error {
	switch tv := v.(type) {
	case nil:
		return setScalar(nil)
	case bool:
		return setScalar(tv)
	case json.Number:
		if isIntegerLiteral(string(tv)) {
			i, err := tv.Int64()
			if err != nil {
				return err
			}
			return setScalar(i)
		}
		f, err := tv.Float64()
		if err != nil {
			return err
		}
		return setScalar(f)
	case string:
		return setScalar(tv)
	case map[string]any:
		m, err := setMap()
		if err != nil {
			return err
		}
		return populateMap(m, tv)
	case []any:
		l, err := setList()
		if err != nil {
			return err
		}
		return populateList(l, tv)
	default:
		return amerr.Newf(amerr.BadJSON, "unsupported JSON value type %T", v)
	}
}

// isIntegerLiteral reports whether a JSON number's literal text has no
// fractional part and no exponent (spec.md §4.3 "Number typing rule").
func isIntegerLiteral(lit string) bool {
	return !strings.ContainsAny(lit, ".eE")
}
