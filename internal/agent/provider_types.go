package agent

import (
	"context"
	"encoding/json"

	"github.com/Spandan7724/songbird/pkg/models"
)

// CompletionMessage is the provider-facing shape of a transcript entry:
// the same information as models.Message, but with tool results inlined
// so an adapter can render them in its own wire format in one pass.
type CompletionMessage struct {
	Role       models.Role       `json:"role"`
	Content    string            `json:"content"`
	ToolCalls  []models.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
}

// Tool is the schema plus implementation the registry and the provider
// adapters both consume: adapters read Name/Description/Schema to build
// the vendor-specific tool declaration; the orchestrator calls Execute.
type Tool interface {
	Name() string
	Description() string
	// Schema returns a JSON Schema object: {"type":"object","properties":{...},"required":[...]}.
	Schema() json.RawMessage
	Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error)
}

// CompletionRequest is one provider call: the system prompt, the
// in-order transcript, and the tool declarations (nil/empty on the
// final synthesizing turn per §4.4).
type CompletionRequest struct {
	Model     string
	System    string
	Messages  []CompletionMessage
	Tools     []Tool
	MaxTokens int
}

// CompletionChunk is one element of a provider's streaming response.
// A chunk carries either a text delta, a completed tool call, or both
// are empty on a Done chunk that only reports usage. Error is set (and
// Done is true) when the stream failed; chunks are never persisted, so
// Error is excluded from the JSON encoding.
type CompletionChunk struct {
	Text         string           `json:"text,omitempty"`
	ToolCall     *models.ToolCall `json:"tool_call,omitempty"`
	Done         bool             `json:"done,omitempty"`
	Error        error            `json:"-"`
	InputTokens  int              `json:"input_tokens,omitempty"`
	OutputTokens int              `json:"output_tokens,omitempty"`
}

// Model describes one backend-advertised model.
type Model struct {
	ID             string
	Name           string
	ContextSize    int
	SupportsVision bool
}

// LLMProvider is the one capability set every backend must satisfy
// (spec §4.2): a streaming chat-completion call, a name, an advertised
// model list and whether it supports tool calling at all.
type LLMProvider interface {
	// Complete streams chunks for one turn. The returned channel is
	// always closed, including on error and on context cancellation;
	// the last chunk sent on an error path has Done=true and Error set.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)
	Name() string
	Models() []Model
	SupportsTools() bool
}
