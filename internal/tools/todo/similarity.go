// Package todo implements the todo_read/todo_write tools (§4.1) and the
// similarity-based upsert rule from §8 invariant 10.
package todo

import "strings"

// SimilarityThreshold is the Jaccard+subset similarity at or above
// which an id-less todo_write entry is treated as an update to an
// existing todo rather than a new one. SPEC_FULL.md's Open Question
// resolution #2: the value is taken from spec.md §4.1/§8 without
// further documented justification, and is kept tunable here.
const SimilarityThreshold = 0.75

// normalize lowercases and splits on whitespace, matching the loose
// "normalized-content" comparison spec.md names without specifying a
// tokenizer; punctuation is left attached to tokens deliberately, so
// "fix: bug" and "fix bug" are treated as similar-but-not-identical,
// which is the conservative choice when no original_source/ reference
// for this logic exists (see DESIGN.md).
func normalize(content string) []string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(content)))
	return fields
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// jaccard is |A∩B| / |A∪B| over token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// subsetScore is |A∩B| / min(|A|,|B|): high when the shorter token set
// is nearly contained in the longer one, which catches "fix the login
// bug" vs "fix login bug" cases plain Jaccard underscores because the
// union grows with the longer string.
func subsetScore(a, b map[string]struct{}) float64 {
	small := len(a)
	if len(b) < small {
		small = len(b)
	}
	if small == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / float64(small)
}

// Similarity returns the higher of the Jaccard and subset scores
// between two todo contents, per §8 invariant 10's "Jaccard + subset
// similarity".
func Similarity(a, b string) float64 {
	setA := toSet(normalize(a))
	setB := toSet(normalize(b))
	j := jaccard(setA, setB)
	s := subsetScore(setA, setB)
	if s > j {
		return s
	}
	return j
}
