package todo

import (
	"context"
	"encoding/json"

	"github.com/Spandan7724/songbird/pkg/models"
)

// ReadTool implements todo_read(status?, show_completed=false).
type ReadTool struct {
	store *Store
}

// NewReadTool builds the todo_read tool over store.
func NewReadTool(store *Store) *ReadTool { return &ReadTool{store: store} }

func (t *ReadTool) Name() string        { return "todo_read" }
func (t *ReadTool) Description() string { return "List todos for the current project, optionally filtered by status." }

func (t *ReadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"status": {"type": "string", "enum": ["pending", "in_progress", "completed"]},
			"show_completed": {"type": "boolean"}
		}
	}`)
}

type readParams struct {
	Status        models.TodoStatus `json:"status"`
	ShowCompleted bool              `json:"show_completed"`
}

func (t *ReadTool) Execute(_ context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p readParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return &models.ToolResult{Success: false, Error: "invalid arguments: " + err.Error()}, nil
		}
	}
	items, err := t.store.List(p.Status)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	if p.Status == "" && !p.ShowCompleted {
		filtered := make([]models.TodoItem, 0, len(items))
		for _, it := range items {
			if it.Status != models.StatusCompleted {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	result, err := json.Marshal(items)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	return &models.ToolResult{Success: true, Result: result}, nil
}

// WriteTool implements todo_write(todos[]) with upsert-by-similarity
// semantics (§4.1, §8 invariant 10).
type WriteTool struct {
	store     *Store
	sessionID string
}

// NewWriteTool builds the todo_write tool over store for the given
// session id (attached to newly created todos).
func NewWriteTool(store *Store, sessionID string) *WriteTool {
	return &WriteTool{store: store, sessionID: sessionID}
}

func (t *WriteTool) Name() string        { return "todo_write" }
func (t *WriteTool) Description() string { return "Create or update todos; entries without an id are matched against existing todos by content similarity." }

func (t *WriteTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"todos": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"id": {"type": "string"},
						"content": {"type": "string"},
						"priority": {"type": "string", "enum": ["high", "medium", "low"]},
						"status": {"type": "string", "enum": ["pending", "in_progress", "completed"]}
					},
					"required": ["content"]
				}
			}
		},
		"required": ["todos"]
	}`)
}

type writeParams struct {
	Todos []models.TodoItem `json:"todos"`
}

func (t *WriteTool) Execute(_ context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p writeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &models.ToolResult{Success: false, Error: "invalid arguments: " + err.Error()}, nil
	}
	items, err := t.store.Upsert(p.Todos, t.sessionID)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	result, err := json.Marshal(items)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	return &models.ToolResult{Success: true, Result: result}, nil
}
