package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Spandan7724/songbird/pkg/models"
)

// MultiEditTool implements multi_edit(operations[], atomic=true): an
// ordered list of create/edit operations, rolled back in reverse order
// on any failure when atomic is set (§4.1, §8 invariant 9).
type MultiEditTool struct {
	Resolver Resolver
}

func NewMultiEditTool(resolver Resolver) *MultiEditTool { return &MultiEditTool{Resolver: resolver} }

func (t *MultiEditTool) Name() string        { return "multi_edit" }
func (t *MultiEditTool) Description() string { return "Apply an ordered list of file create/edit operations, optionally all-or-nothing." }

func (t *MultiEditTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"atomic": {"type": "boolean"},
			"operations": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"type": {"type": "string", "enum": ["create", "edit"]},
						"path": {"type": "string"},
						"content": {"type": "string"}
					},
					"required": ["type", "path", "content"]
				}
			}
		},
		"required": ["operations"]
	}`)
}

type multiEditOp struct {
	Type    string `json:"type"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

type multiEditParams struct {
	Atomic     bool          `json:"atomic"`
	Operations []multiEditOp `json:"operations"`
}

// Preview renders a concatenated diff across every "edit" operation,
// so the confirmation gate shows the full set of changes at once.
func (t *MultiEditTool) Preview(_ context.Context, params json.RawMessage) (string, string, bool, error) {
	var p multiEditParams
	if err := json.Unmarshal(params, &p); err != nil {
		return "", "", false, err
	}
	var diffs []string
	hasChanges := false
	for _, op := range p.Operations {
		abs, err := t.Resolver.Resolve(op.Path)
		if err != nil {
			return "", "", false, err
		}
		switch op.Type {
		case "create":
			if _, err := os.Stat(abs); os.IsNotExist(err) {
				diffs = append(diffs, unifiedDiff(op.Path, "", op.Content))
				hasChanges = true
			}
		case "edit":
			existing, _ := os.ReadFile(abs)
			if string(existing) != op.Content {
				diffs = append(diffs, unifiedDiff(op.Path, string(existing), op.Content))
				hasChanges = true
			}
		}
	}
	return "multi_edit", strings.Join(diffs, "\n"), hasChanges, nil
}

type appliedOp struct {
	path       string
	existed    bool
	prevBytes  []byte
	didCreate  bool
}

// Execute applies each operation in order. With atomic=true, any
// failure rolls back everything applied so far, in reverse order,
// leaving every touched file in its pre-call state (§8 invariant 9).
func (t *MultiEditTool) Execute(_ context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p multiEditParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &models.ToolResult{Success: false, Error: "invalid arguments: " + err.Error()}, nil
	}

	applied := make([]appliedOp, 0, len(p.Operations))
	rollback := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			a := applied[i]
			if a.didCreate {
				os.Remove(a.path)
				continue
			}
			if a.existed {
				os.WriteFile(a.path, a.prevBytes, 0o644)
			} else {
				os.Remove(a.path)
			}
		}
	}

	for _, op := range p.Operations {
		abs, err := t.Resolver.Resolve(op.Path)
		if err != nil {
			if p.Atomic {
				rollback()
			}
			return &models.ToolResult{Success: false, Error: err.Error()}, nil
		}

		existing, readErr := os.ReadFile(abs)
		existed := readErr == nil

		switch op.Type {
		case "create":
			if existed {
				if p.Atomic {
					rollback()
				}
				return &models.ToolResult{Success: false, Error: "file already exists: " + op.Path}, nil
			}
			if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
				if p.Atomic {
					rollback()
				}
				return &models.ToolResult{Success: false, Error: err.Error()}, nil
			}
			if err := os.WriteFile(abs, []byte(op.Content), 0o644); err != nil {
				if p.Atomic {
					rollback()
				}
				return &models.ToolResult{Success: false, Error: err.Error()}, nil
			}
			applied = append(applied, appliedOp{path: abs, didCreate: true})
		case "edit":
			if err := os.WriteFile(abs, []byte(op.Content), 0o644); err != nil {
				if p.Atomic {
					rollback()
				}
				return &models.ToolResult{Success: false, Error: err.Error()}, nil
			}
			applied = append(applied, appliedOp{path: abs, existed: existed, prevBytes: existing})
		default:
			if p.Atomic {
				rollback()
			}
			return &models.ToolResult{Success: false, Error: fmt.Sprintf("unknown operation type: %s", op.Type)}, nil
		}
	}

	result, _ := json.Marshal(map[string]any{"operations_applied": len(applied)})
	return &models.ToolResult{Success: true, Result: result}, nil
}
