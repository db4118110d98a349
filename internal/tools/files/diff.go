package files

import (
	"fmt"
	"strings"

	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// unifiedDiff renders a unified-style diff between old and new, line
// by line, using go-diff's line-mode diffing (lines are mapped to
// single runes so DiffMain operates on whole lines, then mapped back).
// After the ---/+++ header every non-blank line of both versions is
// listed with a " ", "-" or "+" prefix; there are no @@ hunk headers,
// and blank lines are left out.
func unifiedDiff(path, old, new string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var b2 strings.Builder
	fmt.Fprintf(&b2, "--- %s\n+++ %s\n", path, path)
	for _, d := range diffs {
		for _, line := range splitKeepEmpty(d.Text) {
			if line == "" {
				continue
			}
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				b2.WriteString("-" + line + "\n")
			case diffmatchpatch.DiffInsert:
				b2.WriteString("+" + line + "\n")
			default:
				b2.WriteString(" " + line + "\n")
			}
		}
	}
	return b2.String()
}

func splitKeepEmpty(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
