package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// bytesReader adapts a []byte to io.Reader without importing bytes at
// every call site.
func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

var (
	reFence          = regexp.MustCompile("(?s)^```(?:json)?\\s*|\\s*```$")
	reUnquotedKey    = regexp.MustCompile(`([{,])\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
	reTrailingComma1 = regexp.MustCompile(`,\s*}`)
	reTrailingComma2 = regexp.MustCompile(`,\s*]`)
)

// RepairJSON parses a tool call's raw argument payload, which a model
// may deliver as a proper JSON object, as a JSON-encoded string, or
// (tolerated, per §4.4) as a malformed near-JSON string with markdown
// fences, single quotes, unquoted keys, or trailing commas. It
// attempts a strict parse first and only falls back to the repair pass
// on failure, per §9's "prefer strict parse first, repair only on
// failure" design note.
//
// provider selects provider-specific post-repair fixes; the only one
// is for "gemini"/"google" (double-escaped newlines and tabs), and every
// other value applies none. Pass "" when the caller has no provider
// context.
func RepairJSON(raw json.RawMessage, provider string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("{}"), nil
	}

	// Already a valid JSON object/array.
	var probe any
	if err := json.Unmarshal(trimmed, &probe); err == nil {
		if _, isObj := probe.(map[string]any); isObj {
			return trimmed, nil
		}
		// A JSON-encoded string: the real payload is one level down.
		if s, isStr := probe.(string); isStr {
			return repairString(s, provider)
		}
	}

	return repairString(string(trimmed), provider)
}

func repairString(s string, provider string) (json.RawMessage, error) {
	var direct any
	if err := json.Unmarshal([]byte(s), &direct); err == nil {
		return json.RawMessage(s), nil
	}

	fixed := reFence.ReplaceAllString(s, "")
	fixed = reUnquotedKey.ReplaceAllString(fixed, `$1"$2":`)
	fixed = replaceSingleQuotes(fixed)
	fixed = reTrailingComma1.ReplaceAllString(fixed, "}")
	fixed = reTrailingComma2.ReplaceAllString(fixed, "]")

	switch provider {
	case "gemini", "google":
		fixed = strings.ReplaceAll(fixed, `\\n`, `\n`)
		fixed = strings.ReplaceAll(fixed, `\\t`, `\t`)
	}

	var out any
	if err := json.Unmarshal([]byte(fixed), &out); err != nil {
		return nil, fmt.Errorf("could not repair tool arguments: %w", err)
	}
	return json.RawMessage(fixed), nil
}

// replaceSingleQuotes mirrors the source's blunt `'` -> `"` substitution.
// It is intentionally simple (matching the Python original): it does
// not attempt to distinguish quotes inside string content, since the
// malformed inputs it targets are near-JSON, not arbitrary text.
func replaceSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `"`)
}
