package amdoc

import (
	"strconv"
	"strings"

	"github.com/amergekv/amergekv/internal/amerr"
)

// SegmentKind distinguishes the two path segment shapes.
type SegmentKind int

const (
	// SegField addresses a map key by name.
	SegField SegmentKind = iota
	// SegIndex addresses a list element by position.
	SegIndex
)

// Segment is one step of a parsed Path: either Field(name) or Index(n).
type Segment struct {
	Kind  SegmentKind
	Field string
	Index int
}

// Path is a parsed sequence of segments locating a node within a document.
// An empty Path refers to the root map.
type Path []Segment

// String renders p back to the canonical `$.a.b[0]` surface form, used in
// error and log messages.
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range p {
		switch seg.Kind {
		case SegField:
			b.WriteByte('.')
			b.WriteString(seg.Field)
		case SegIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// ParsePath parses the surface grammar from spec.md §4.1:
//
//	path     := ('$.' | '$' | ε) segments?
//	segments := segment ('.' segment)*
//	segment  := name ('[' uint ']')*
//	name     := [^.\[\]$]+  (non-empty)
//
// An empty string or a bare "$" resolves to the root map (an empty Path).
func ParsePath(surface string) (Path, error) {
	s := surface
	switch {
	case strings.HasPrefix(s, "$."):
		s = s[2:]
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	}
	if s == "" {
		return nil, nil
	}

	var path Path
	for _, rawSeg := range strings.Split(s, ".") {
		if rawSeg == "" {
			return nil, amerr.Newf(amerr.BadPath, "empty segment in path %q", surface)
		}
		name, indices, err := splitSegment(rawSeg)
		if err != nil {
			return nil, amerr.Newf(amerr.BadPath, "%v in path %q", err, surface)
		}
		if name != "" {
			path = append(path, Segment{Kind: SegField, Field: name})
		}
		for _, idx := range indices {
			path = append(path, Segment{Kind: SegIndex, Index: idx})
		}
	}
	return path, nil
}

// splitSegment parses `name[i][j]...` into the leading field name (possibly
// empty, for a segment that is only index brackets) and the list of indices.
func splitSegment(seg string) (string, []int, error) {
	bracket := strings.IndexByte(seg, '[')
	name := seg
	rest := ""
	if bracket >= 0 {
		name = seg[:bracket]
		rest = seg[bracket:]
	}
	if name == "" && rest == "" {
		return "", nil, errBadSegment
	}
	var indices []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, errBadSegment
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, errBadSegment
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil || n < 0 {
			return "", nil, errBadSegment
		}
		indices = append(indices, n)
		rest = rest[end+1:]
	}
	return name, indices, nil
}

var errBadSegment = pathError("malformed path segment")

type pathError string

func (e pathError) Error() string { return string(e) }
