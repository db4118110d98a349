package files

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Spandan7724/songbird/pkg/models"
)

// CreateTool implements file_create(path, content); it fails if the
// file already exists (§4.1).
type CreateTool struct {
	Resolver Resolver
}

func NewCreateTool(resolver Resolver) *CreateTool { return &CreateTool{Resolver: resolver} }

func (t *CreateTool) Name() string        { return "file_create" }
func (t *CreateTool) Description() string { return "Create a new file with the given content; fails if it already exists." }

func (t *CreateTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"content": {"type": "string"}
		},
		"required": ["path", "content"]
	}`)
}

type createParams struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (t *CreateTool) Execute(_ context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p createParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &models.ToolResult{Success: false, Error: "invalid arguments: " + err.Error()}, nil
	}
	if p.Path == "" {
		return &models.ToolResult{Success: false, Error: "path is required"}, nil
	}
	abs, err := t.Resolver.Resolve(p.Path)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	if _, err := os.Stat(abs); err == nil {
		return &models.ToolResult{Success: false, Error: "file already exists: " + p.Path}, nil
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	if err := os.WriteFile(abs, []byte(p.Content), 0o644); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	result, _ := json.Marshal(map[string]any{"path": p.Path, "bytes_written": len(p.Content)})
	return &models.ToolResult{Success: true, Result: result}, nil
}
