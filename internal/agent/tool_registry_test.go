package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spandan7724/songbird/pkg/models"
)

type strictSchemaTool struct{}

func (strictSchemaTool) Name() string        { return "greet" }
func (strictSchemaTool) Description() string { return "greets someone" }
func (strictSchemaTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)
}
func (strictSchemaTool) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(params, &p)
	return &models.ToolResult{Success: true, Result: json.RawMessage(`"hello ` + p.Name + `"`)}, nil
}

func TestRegisterRejectsUnnamedTool(t *testing.T) {
	registry := NewToolRegistry()
	err := registry.Register(nil)
	assert.Error(t, err)
}

func TestRegisterRejectsInvalidSchema(t *testing.T) {
	registry := NewToolRegistry()
	err := registry.Register(badSchemaTool{})
	assert.Error(t, err)
}

type badSchemaTool struct{}

func (badSchemaTool) Name() string                 { return "bad" }
func (badSchemaTool) Description() string          { return "" }
func (badSchemaTool) Schema() json.RawMessage       { return json.RawMessage(`not json`) }
func (badSchemaTool) Execute(context.Context, json.RawMessage) (*models.ToolResult, error) {
	return nil, nil
}

func TestExecuteUnknownToolReturnsUniformFailure(t *testing.T) {
	registry := NewToolRegistry()
	result := registry.Execute(context.Background(), models.ToolCall{Name: "missing"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown tool")
}

func TestExecuteValidatesAgainstSchema(t *testing.T) {
	registry := NewToolRegistry()
	require.NoError(t, registry.Register(strictSchemaTool{}))

	result := registry.Execute(context.Background(), models.ToolCall{Name: "greet", Arguments: json.RawMessage(`{}`)})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "schema")
}

func TestExecuteRunsToolOnValidArguments(t *testing.T) {
	registry := NewToolRegistry()
	require.NoError(t, registry.Register(strictSchemaTool{}))

	result := registry.Execute(context.Background(), models.ToolCall{Name: "greet", Arguments: json.RawMessage(`{"name":"songbird"}`)})
	require.True(t, result.Success)
	assert.JSONEq(t, `"hello songbird"`, string(result.Result))
}

func TestAsLLMToolsReturnsAllRegistered(t *testing.T) {
	registry := NewToolRegistry()
	require.NoError(t, registry.Register(strictSchemaTool{}))
	require.NoError(t, registry.Register(echoTool{}))

	tools := registry.AsLLMTools()
	assert.Len(t, tools, 2)
}

func TestUnregisterRemovesTool(t *testing.T) {
	registry := NewToolRegistry()
	require.NoError(t, registry.Register(echoTool{}))
	registry.Unregister("echo")

	_, ok := registry.Get("echo")
	assert.False(t, ok)
}
