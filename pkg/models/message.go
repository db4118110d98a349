// Package models defines the transcript and session data types shared
// across the agent orchestrator, the session store and the tool
// registry.
package models

import (
	"encoding/json"
	"time"
)

// Role identifies who authored a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model-emitted request to invoke a named tool with
// arguments. Arguments is kept as raw JSON because providers sometimes
// deliver it as a JSON-encoded string rather than a parsed object; the
// orchestrator normalizes it once at the adapter boundary.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult carries a tool's outcome back into the transcript as the
// content of a "tool" role Message. Success/Result/Error mirror the
// uniform {success, result?, error?} tool JSON contract from §4.1.
type ToolResult struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Message is a single transcript entry.
type Message struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ProviderConfig records the last provider/model a session used, so
// resuming a session restores the correct backend.
type ProviderConfig struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	APIBase       string `json:"api_base,omitempty"`
	ResolvedModel string `json:"resolved_model,omitempty"`
}

// Session is the persistent transcript and provider config for one
// working directory. Sessions are partitioned by ProjectRoot and never
// change project root over their lifetime.
type Session struct {
	ID             string         `json:"id"`
	ProjectRoot    string         `json:"project_root"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Summary        string         `json:"summary"`
	ProviderConfig ProviderConfig `json:"provider_config"`
	Messages       []Message      `json:"messages"`
}

// SessionStub is the lightweight listing shape returned by
// list_sessions: no message bodies, just enough to pick a session to
// resume.
type SessionStub struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Summary    string    `json:"summary"`
	NMessages  int       `json:"n_messages"`
}

// TodoPriority and TodoStatus are the closed enums a TodoItem's fields
// are drawn from.
type TodoPriority string

const (
	PriorityHigh   TodoPriority = "high"
	PriorityMedium TodoPriority = "medium"
	PriorityLow    TodoPriority = "low"
)

type TodoStatus string

const (
	StatusPending    TodoStatus = "pending"
	StatusInProgress TodoStatus = "in_progress"
	StatusCompleted  TodoStatus = "completed"
)

// TodoItem is the domain entity owned by the todo tool; it is stored
// separately per project root and survives across sessions.
type TodoItem struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	Priority  TodoPriority `json:"priority"`
	Status    TodoStatus   `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	SessionID string       `json:"session_id,omitempty"`
}

// DiscoveredModel is a cache entry produced by the model-discovery
// layer; it carries its own TTL-managed freshness outside this type.
type DiscoveredModel struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	Provider                string   `json:"provider"`
	SupportsFunctionCalling bool     `json:"supports_function_calling"`
	SupportsStreaming       bool     `json:"supports_streaming"`
	ContextLength           *int     `json:"context_length,omitempty"`
	Description             string   `json:"description,omitempty"`
	PricingPerToken         *float64 `json:"pricing_per_token,omitempty"`
}

// DisplayName renders "name (description)" when a description is
// present, otherwise just name.
func (m DiscoveredModel) DisplayName() string {
	if m.Description != "" {
		return m.Name + " (" + m.Description + ")"
	}
	return m.Name
}

// QualifiedID renders "provider/id" unless id is already
// vendor-qualified (contains a slash).
func (m DiscoveredModel) QualifiedID() string {
	for i := range m.ID {
		if m.ID[i] == '/' {
			return m.ID
		}
	}
	return m.Provider + "/" + m.ID
}
