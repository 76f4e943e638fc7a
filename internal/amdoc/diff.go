package amdoc

import (
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/amergekv/amergekv/internal/amerr"
)

// PutDiff applies a standard unified diff against the current text at
// path and expresses the resulting edit as the minimal ordered sequence
// of splices preserving anchor characters (spec.md §4.2), rather than as
// a full overwrite, so concurrent edits to untouched regions still merge.
//
// The unified diff is first applied textually to recover the target
// string; diffmatchpatch then computes the equal/insert/delete runs
// between the current and target text, and each non-equal run becomes
// one Text.Splice call, applied in order at its rune offset into the text
// as already edited by the preceding runs.
func (d *Document) PutDiff(pathStr, unifiedDiff string) ([][]byte, error) {
	current, ok, err := d.GetText(pathStr)
	if err != nil {
		return nil, err
	}
	if !ok {
		current = ""
	}
	target, err := applyUnifiedDiff(current, unifiedDiff)
	if err != nil {
		return nil, err
	}

	t, err := d.ensureTextAt(pathStr)
	if err != nil {
		return nil, err
	}

	dmp := diffmatchpatch.New()
	runs := dmp.DiffMain(current, target, false)
	pos := 0
	for _, run := range runs {
		n := len([]rune(run.Text))
		switch run.Type {
		case diffmatchpatch.DiffEqual:
			pos += n
		case diffmatchpatch.DiffDelete:
			if err := t.Splice(pos, n, ""); err != nil {
				return nil, amerr.New(amerr.Internal, "splice delete").Wrap(err)
			}
		case diffmatchpatch.DiffInsert:
			if err := t.Splice(pos, 0, run.Text); err != nil {
				return nil, amerr.New(amerr.Internal, "splice insert").Wrap(err)
			}
			pos += n
		}
	}
	return d.commit("putdiff " + pathStr)
}

// applyUnifiedDiff applies a minimal unified-diff (the `diff -u` /
// `git diff` format: "@@ -l,s +l,s @@" hunk headers followed by
// ` `/`-`/`+`-prefixed lines) against current, returning the patched
// text. Context and removed lines must match current exactly, otherwise
// the diff is reported as BAD_DIFF; the line counts in the hunk header
// are not checked.
func applyUnifiedDiff(current, patch string) (string, error) {
	if strings.TrimSpace(patch) == "" {
		return current, nil
	}
	srcLines := splitKeepEmpty(current)
	var out []string
	srcIdx := 0

	lines := strings.Split(patch, "\n")
	i := 0
	for i < len(lines) {
		line := lines[i]
		if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
			i++
			continue
		}
		if !strings.HasPrefix(line, "@@") {
			i++
			continue
		}
		oldStart, _, ok := parseHunkHeader(line)
		if !ok {
			return "", amerr.Newf(amerr.BadDiff, "malformed hunk header %q", line)
		}
		// Copy unchanged lines up to the hunk's start.
		for srcIdx < oldStart-1 && srcIdx < len(srcLines) {
			out = append(out, srcLines[srcIdx])
			srcIdx++
		}
		i++
		for i < len(lines) {
			hl := lines[i]
			if hl == "" || strings.HasPrefix(hl, "@@") {
				break
			}
			switch hl[0] {
			case ' ':
				if srcIdx >= len(srcLines) || srcLines[srcIdx] != hl[1:] {
					return "", amerr.New(amerr.BadDiff, "context line does not match current text")
				}
				out = append(out, srcLines[srcIdx])
				srcIdx++
			case '-':
				if srcIdx >= len(srcLines) || srcLines[srcIdx] != hl[1:] {
					return "", amerr.New(amerr.BadDiff, "deleted line does not match current text")
				}
				srcIdx++
			case '+':
				out = append(out, hl[1:])
			default:
				return "", amerr.Newf(amerr.BadDiff, "malformed hunk line %q", hl)
			}
			i++
		}
	}
	for srcIdx < len(srcLines) {
		out = append(out, srcLines[srcIdx])
		srcIdx++
	}
	return strings.Join(out, "\n"), nil
}

// parseHunkHeader extracts the old-file start line from "@@ -l,s +l,s @@".
func parseHunkHeader(header string) (oldStart, oldCount int, ok bool) {
	parts := strings.Fields(header)
	for _, p := range parts {
		if strings.HasPrefix(p, "-") {
			spec := strings.TrimPrefix(p, "-")
			nums := strings.SplitN(spec, ",", 2)
			n, err := strconv.Atoi(nums[0])
			if err != nil {
				return 0, 0, false
			}
			count := 1
			if len(nums) == 2 {
				if c, err := strconv.Atoi(nums[1]); err == nil {
					count = c
				}
			}
			return n, count, true
		}
	}
	return 0, 0, false
}

// splitKeepEmpty splits on "\n" the way a unified diff's line-oriented
// hunks expect: an empty string still yields one (empty) line.
func splitKeepEmpty(s string) []string {
	return strings.Split(s, "\n")
}
