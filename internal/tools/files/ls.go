package files

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	"github.com/Spandan7724/songbird/pkg/models"
)

// LSTool implements ls(path=".", show_hidden=false).
type LSTool struct {
	Resolver Resolver
}

func NewLSTool(resolver Resolver) *LSTool { return &LSTool{Resolver: resolver} }

func (t *LSTool) Name() string        { return "ls" }
func (t *LSTool) Description() string { return "List a directory's entries." }

func (t *LSTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"show_hidden": {"type": "boolean"}
		}
	}`)
}

type lsParams struct {
	Path       string `json:"path"`
	ShowHidden bool   `json:"show_hidden"`
}

type lsEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

func (t *LSTool) Execute(_ context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p lsParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return &models.ToolResult{Success: false, Error: "invalid arguments: " + err.Error()}, nil
		}
	}
	if p.Path == "" {
		p.Path = "."
	}
	abs, err := t.Resolver.Resolve(p.Path)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	entries := make([]lsEntry, 0, len(dirEntries))
	for _, e := range dirEntries {
		if !p.ShowHidden && len(e.Name()) > 0 && e.Name()[0] == '.' {
			continue
		}
		info, err := e.Info()
		size := int64(0)
		if err == nil {
			size = info.Size()
		}
		entries = append(entries, lsEntry{Name: e.Name(), IsDir: e.IsDir(), Size: size})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	result, _ := json.Marshal(entries)
	return &models.ToolResult{Success: true, Result: result}, nil
}
