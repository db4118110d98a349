package files

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/Spandan7724/songbird/pkg/models"
)

// MaxReadSize is the hard cap on file_read's input, per §4.1
// ("Rejects ... files larger than 1 MiB").
const MaxReadSize = 1 << 20

// ReadTool implements file_read(path, lines?, start_line?).
type ReadTool struct {
	Resolver Resolver
}

func NewReadTool(resolver Resolver) *ReadTool { return &ReadTool{Resolver: resolver} }

func (t *ReadTool) Name() string { return "file_read" }
func (t *ReadTool) Description() string {
	return "Read a text file's content, optionally a line range."
}

func (t *ReadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"lines": {"type": "integer"},
			"start_line": {"type": "integer"}
		},
		"required": ["path"]
	}`)
}

type readParams struct {
	Path      string `json:"path"`
	Lines     int    `json:"lines"`
	StartLine int    `json:"start_line"`
}

type readResult struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Lines     int    `json:"lines"`
	SizeBytes int    `json:"size_bytes"`
}

func (t *ReadTool) Execute(_ context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p readParams
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

	info, err := os.Stat(abs)
	if err != nil {
		return &models.ToolResult{Success: false, Error: "file not found: " + p.Path}, nil
	}
	if info.Size() > MaxReadSize {
		return &models.ToolResult{Success: false, Error: "file exceeds the 1 MiB read limit"}, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	if !utf8.Valid(data) {
		return &models.ToolResult{Success: false, Error: "file is not valid UTF-8 text"}, nil
	}

	content := string(data)
	lineCount := bytes.Count(data, []byte("\n")) + 1
	if p.StartLine > 0 || p.Lines > 0 {
		allLines := strings.Split(content, "\n")
		start := p.StartLine - 1
		if start < 0 {
			start = 0
		}
		end := len(allLines)
		if p.Lines > 0 && start+p.Lines < end {
			end = start + p.Lines
		}
		if start > len(allLines) {
			start = len(allLines)
		}
		content = strings.Join(allLines[start:end], "\n")
	}

	result, err := json.Marshal(readResult{
		Path: p.Path, Content: content, Lines: lineCount, SizeBytes: len(data),
	})
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	return &models.ToolResult{Success: true, Result: result}, nil
}
