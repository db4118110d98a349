package files

import (
	"context"
	"encoding/json"

	"github.com/Spandan7724/songbird/pkg/models"
)

// GlobTool is a thin wrapper over file_search forced into glob mode
// (§4.1): glob(pattern, directory=".", max_results=50).
type GlobTool struct {
	search *SearchTool
}

func NewGlobTool(resolver Resolver) *GlobTool { return &GlobTool{search: NewSearchTool(resolver)} }

func (t *GlobTool) Name() string        { return "glob" }
func (t *GlobTool) Description() string { return "Find files matching a glob pattern." }

func (t *GlobTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string"},
			"directory": {"type": "string"},
			"max_results": {"type": "integer"}
		},
		"required": ["pattern"]
	}`)
}

func (t *GlobTool) Execute(_ context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p searchParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &models.ToolResult{Success: false, Error: "invalid arguments: " + err.Error()}, nil
	}
	p.Directory = orDefault(p.Directory, ".")
	return t.search.runSearch(p, false, true)
}

// GrepTool is a thin wrapper over file_search forced into text/regex
// mode (§4.1): grep(pattern, directory=".", file_type?,
// case_sensitive=false, max_results=50).
type GrepTool struct {
	search *SearchTool
}

func NewGrepTool(resolver Resolver) *GrepTool { return &GrepTool{search: NewSearchTool(resolver)} }

func (t *GrepTool) Name() string        { return "grep" }
func (t *GrepTool) Description() string { return "Search file contents for text or a regular expression." }

func (t *GrepTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string"},
			"directory": {"type": "string"},
			"file_type": {"type": "string"},
			"case_sensitive": {"type": "boolean"},
			"max_results": {"type": "integer"}
		},
		"required": ["pattern"]
	}`)
}

func (t *GrepTool) Execute(_ context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p searchParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &models.ToolResult{Success: false, Error: "invalid arguments: " + err.Error()}, nil
	}
	p.Directory = orDefault(p.Directory, ".")
	return t.search.runSearch(p, false, false)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
