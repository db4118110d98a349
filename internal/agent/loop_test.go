package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spandan7724/songbird/pkg/models"
)

// scriptedProvider replays a fixed sequence of completions, one per
// call to Complete, regardless of the request it's given.
type scriptedProvider struct {
	turns []models.Message
	calls int
}

func (p *scriptedProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	ch := make(chan *CompletionChunk, 4)
	turn := p.turns[p.calls]
	p.calls++
	go func() {
		defer close(ch)
		if turn.Content != "" {
			ch <- &CompletionChunk{Text: turn.Content}
		}
		for _, tc := range turn.ToolCalls {
			tc := tc
			ch <- &CompletionChunk{ToolCall: &tc}
		}
		ch <- &CompletionChunk{Done: true}
	}()
	return ch, nil
}

func (p *scriptedProvider) Name() string         { return "scripted" }
func (p *scriptedProvider) Models() []Model      { return nil }
func (p *scriptedProvider) SupportsTools() bool  { return true }

type echoTool struct{}

func (echoTool) Name() string                 { return "echo" }
func (echoTool) Description() string          { return "echoes its input" }
func (echoTool) Schema() json.RawMessage       { return json.RawMessage(`{"type":"object"}`) }
func (echoTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	return &models.ToolResult{Success: true, Result: params}, nil
}

func newTestOrchestrator(t *testing.T, provider LLMProvider) (*Orchestrator, *[]models.Message) {
	t.Helper()
	registry := NewToolRegistry()
	require.NoError(t, registry.Register(echoTool{}))
	gate := NewConfirmationGate(NoopUIPort{}, true)
	var persisted []models.Message
	orch := NewOrchestrator(provider, registry, gate, DefaultLoopConfig(), "you are a test agent", nil, nil)
	return orch, &persisted
}

func TestOrchestratorRunWithoutToolCalls(t *testing.T) {
	provider := &scriptedProvider{turns: []models.Message{
		{Content: "hello there"},
	}}
	orch, _ := newTestOrchestrator(t, provider)
	session := &models.Session{ID: "s1", ProviderConfig: models.ProviderConfig{Model: "test-model"}}

	var seen []models.Message
	err := orch.Run(context.Background(), session, "hi", func(m models.Message) { seen = append(seen, m) })

	require.NoError(t, err)
	require.Len(t, seen, 2) // user, assistant
	assert.Equal(t, models.RoleUser, seen[0].Role)
	assert.Equal(t, models.RoleAssistant, seen[1].Role)
	assert.Equal(t, "hello there", seen[1].Content)
	assert.Equal(t, 1, provider.calls)
}

func TestOrchestratorRunDispatchesToolCallThenSynthesizes(t *testing.T) {
	toolCall := models.ToolCall{ID: "call-1", Name: "echo", Arguments: json.RawMessage(`{"x":1}`)}
	provider := &scriptedProvider{turns: []models.Message{
		{ToolCalls: []models.ToolCall{toolCall}},
		{Content: "stray, should be discarded"},
		{Content: "done"},
	}}
	orch, _ := newTestOrchestrator(t, provider)
	session := &models.Session{ID: "s2", ProviderConfig: models.ProviderConfig{Model: "test-model"}}

	var seen []models.Message
	err := orch.Run(context.Background(), session, "do the thing", func(m models.Message) { seen = append(seen, m) })

	require.NoError(t, err)
	// user, assistant(tool call), tool result, assistant(final synthesis)
	require.Len(t, seen, 4)
	assert.Equal(t, models.RoleTool, seen[2].Role)
	assert.Equal(t, toolCall.ID, seen[2].ToolCallID)
	assert.Equal(t, "done", seen[3].Content)
	assert.Equal(t, 3, provider.calls)
}

func TestOrchestratorRunAbortsOnMaxIterations(t *testing.T) {
	toolCall := models.ToolCall{ID: "call-1", Name: "echo", Arguments: json.RawMessage(`{}`)}
	turns := make([]models.Message, 0, 3)
	for i := 0; i < 2; i++ {
		turns = append(turns, models.Message{ToolCalls: []models.ToolCall{toolCall}})
	}
	turns = append(turns, models.Message{Content: "final summary"})
	provider := &scriptedProvider{turns: turns}

	registry := NewToolRegistry()
	require.NoError(t, registry.Register(echoTool{}))
	gate := NewConfirmationGate(NoopUIPort{}, true)
	cfg := DefaultLoopConfig()
	cfg.MaxIterations = 2
	orch := NewOrchestrator(provider, registry, gate, cfg, "sys", nil, nil)

	session := &models.Session{ID: "s3", ProviderConfig: models.ProviderConfig{Model: "test-model"}}
	var seen []models.Message
	err := orch.Run(context.Background(), session, "loop forever", func(m models.Message) { seen = append(seen, m) })

	require.ErrorIs(t, err, ErrMaxIterations)
	last := seen[len(seen)-1]
	assert.Equal(t, "final summary", last.Content)
}

func TestOrchestratorRunCanceledBeforeFirstModelCall(t *testing.T) {
	provider := &scriptedProvider{turns: []models.Message{{Content: "unreachable"}}}
	orch, _ := newTestOrchestrator(t, provider)
	session := &models.Session{ID: "s4", ProviderConfig: models.ProviderConfig{Model: "test-model"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen []models.Message
	err := orch.Run(ctx, session, "hi", func(m models.Message) { seen = append(seen, m) })

	require.ErrorIs(t, err, ErrCanceled)
	require.Len(t, seen, 1) // only the user message
	assert.Equal(t, models.RoleUser, seen[0].Role)
}
