package files

import (
	"context"
	"encoding/json"
	"os"

	"github.com/Spandan7724/songbird/pkg/models"
)

// EditTool implements file_edit(path, new_content): a two-phase write
// whose Preview computes the unified diff the orchestrator gates
// behind confirmation (§4.1, §4.4 step 3), and whose Execute performs
// the atomic write once confirmed (or immediately under
// SONGBIRD_AUTO_APPLY, which the orchestrator's ConfirmationGate
// already accounts for before Execute is ever reached).
type EditTool struct {
	Resolver Resolver
	// Backup, when true, writes a ".bak" sibling before overwriting.
	Backup bool
}

func NewEditTool(resolver Resolver, backup bool) *EditTool {
	return &EditTool{Resolver: resolver, Backup: backup}
}

func (t *EditTool) Name() string        { return "file_edit" }
func (t *EditTool) Description() string { return "Replace a file's content, previewing a unified diff before writing." }

func (t *EditTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"new_content": {"type": "string"}
		},
		"required": ["path", "new_content"]
	}`)
}

type editParams struct {
	Path       string `json:"path"`
	NewContent string `json:"new_content"`
}

// Preview computes path's diff against its current content, without
// writing anything, satisfying the Executor's DiffPreviewer contract.
func (t *EditTool) Preview(_ context.Context, params json.RawMessage) (string, string, bool, error) {
	var p editParams
	if err := json.Unmarshal(params, &p); err != nil {
		return "", "", false, err
	}
	abs, err := t.Resolver.Resolve(p.Path)
	if err != nil {
		return "", "", false, err
	}
	existing, err := os.ReadFile(abs)
	if err != nil && !os.IsNotExist(err) {
		return "", "", false, err
	}
	if string(existing) == p.NewContent {
		return p.Path, "", false, nil
	}
	diff := unifiedDiff(p.Path, string(existing), p.NewContent)
	return p.Path, diff, true, nil
}

// Execute performs the write (temp file, then rename). It is only reached after the Executor's
// confirmation gate accepted the change (or Preview reported no
// changes).
func (t *EditTool) Execute(_ context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p editParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &models.ToolResult{Success: false, Error: "invalid arguments: " + err.Error()}, nil
	}
	abs, err := t.Resolver.Resolve(p.Path)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}

	existing, readErr := os.ReadFile(abs)
	if readErr != nil && !os.IsNotExist(readErr) {
		return &models.ToolResult{Success: false, Error: readErr.Error()}, nil
	}
	changed := string(existing) != p.NewContent

	if t.Backup && readErr == nil {
		if err := os.WriteFile(abs+".bak", existing, 0o644); err != nil {
			return &models.ToolResult{Success: false, Error: "backing up file: " + err.Error()}, nil
		}
	}
	tmp := abs + ".tmp"
	if err := os.WriteFile(tmp, []byte(p.NewContent), 0o644); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	if err := os.Rename(tmp, abs); err != nil {
		os.Remove(tmp)
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}

	result, _ := json.Marshal(map[string]any{"path": p.Path, "changes_made": changed})
	return &models.ToolResult{Success: true, Result: result}, nil
}
