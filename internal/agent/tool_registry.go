package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Spandan7724/songbird/pkg/models"
)

const (
	// MaxToolNameLength bounds a tool name accepted by Execute.
	MaxToolNameLength = 256
	// MaxToolParamsSize bounds the raw argument payload Execute accepts.
	MaxToolParamsSize = 10 << 20
)

// ToolRegistry is the catalogue of callable tools (C1): a name maps to
// one schema+implementation pair. Schemas are compiled once at
// Register time so a malformed tool schema fails fast instead of on
// first use.
type ToolRegistry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds or replaces a tool, compiling its JSON Schema up
// front. An invalid schema is rejected rather than silently accepted.
func (r *ToolRegistry) Register(t Tool) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("tool registry: refusing to register an unnamed tool")
	}
	compiler := jsonschema.NewCompiler()
	uri := "mem://" + t.Name() + ".json"
	if err := compiler.AddResource(uri, bytesReader(t.Schema())); err != nil {
		return fmt.Errorf("tool registry: compiling schema for %q: %w", t.Name(), err)
	}
	schema, err := compiler.Compile(uri)
	if err != nil {
		return fmt.Errorf("tool registry: compiling schema for %q: %w", t.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	r.schemas[t.Name()] = schema
	return nil
}

// Unregister removes a tool by name; a no-op if absent.
func (r *ToolRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.schemas, name)
}

// Get returns the tool registered under name, if any.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// AsLLMTools returns every registered tool, for building the provider
// request's tool declarations.
func (r *ToolRegistry) AsLLMTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// Execute validates name/params size, validates params against the
// tool's compiled schema, and invokes the tool. It never returns a Go
// error for tool-domain failures (unknown tool, bad arguments,
// execution failure); those are encoded in the returned ToolResult per
// the uniform {success, result?, error?} contract (§4.1, §7
// ToolValidation/ToolFailure).
func (r *ToolRegistry) Execute(ctx context.Context, call models.ToolCall) *models.ToolResult {
	if len(call.Name) == 0 || len(call.Name) > MaxToolNameLength {
		return failResult("invalid tool name")
	}
	if len(call.Arguments) > MaxToolParamsSize {
		return failResult("tool arguments exceed the size limit")
	}

	r.mu.RLock()
	t, ok := r.tools[call.Name]
	schema := r.schemas[call.Name]
	r.mu.RUnlock()
	if !ok {
		return failResult(fmt.Sprintf("unknown tool: %s", call.Name))
	}

	args, err := RepairJSON(call.Arguments, "")
	if err != nil {
		return failResult(fmt.Sprintf("invalid tool arguments: %v", err))
	}

	if schema != nil {
		var v any
		if err := json.Unmarshal(args, &v); err == nil {
			if err := schema.Validate(v); err != nil {
				return failResult(fmt.Sprintf("arguments do not match schema: %v", err))
			}
		}
	}

	result, err := t.Execute(ctx, args)
	if err != nil {
		return failResult(err.Error())
	}
	if result == nil {
		return failResult("tool returned no result")
	}
	return result
}

func failResult(msg string) *models.ToolResult {
	return &models.ToolResult{Success: false, Error: msg}
}
