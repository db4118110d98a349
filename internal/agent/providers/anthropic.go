package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Spandan7724/songbird/internal/agent"
	"github.com/Spandan7724/songbird/pkg/models"
)

// AnthropicProvider adapts the Claude Messages API to LLMProvider.
// Constructing with an empty apiKey is legal; Complete classifies the
// resulting 401 as AuthenticationError at call time.
type AnthropicProvider struct {
	base   BaseProvider
	client *anthropic.Client
	model  string
	hasKey bool
}

var _ agent.LLMProvider = (*AnthropicProvider)(nil)

// NewAnthropicProvider builds a provider for the given API key and
// default model.
func NewAnthropicProvider(apiKey, defaultModel string) *AnthropicProvider {
	p := &AnthropicProvider{
		base:  NewBaseProvider("anthropic", 3, time.Second),
		model: defaultModel,
	}
	if apiKey != "" {
		c := anthropic.NewClient(option.WithAPIKey(apiKey))
		p.client = &c
		p.hasKey = true
	}
	return p
}

func (p *AnthropicProvider) Name() string        { return "anthropic" }
func (p *AnthropicProvider) SupportsTools() bool { return true }

func (p *AnthropicProvider) Models() []Model {
	return []Model{
		{ID: "claude-sonnet-4-5", Name: "Claude Sonnet 4.5", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-opus-4-1", Name: "Claude Opus 4.1", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-haiku-4-5", Name: "Claude Haiku 4.5", ContextSize: 200000, SupportsVision: true},
	}
}

func (p *AnthropicProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	if !p.hasKey {
		return nil, Classify("anthropic", 401, fmt.Errorf("ANTHROPIC_API_KEY is not set"))
	}
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  convertToAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if tools := convertToAnthropicTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	out := make(chan *agent.CompletionChunk, 16)
	var stream *anthropic.MessageStream
	err := p.base.Retry(ctx, isRetryableAnthropic, func() error {
		stream = p.client.Messages.NewStreaming(ctx, params)
		return nil
	})
	if err != nil {
		return nil, Classify("anthropic", 0, err)
	}

	go func() {
		defer close(out)
		processAnthropicStream(ctx, stream, out)
	}()
	return out, nil
}

func isRetryableAnthropic(err error) bool {
	k := classifyMessage(err.Error())
	return k == KindRateLimit || k == KindConnection
}

func processAnthropicStream(ctx context.Context, stream *anthropic.MessageStream, out chan<- *agent.CompletionChunk) {
	pendingTools := map[int]*models.ToolCall{}

	for stream.Next() {
		if ctx.Err() != nil {
			out <- &agent.CompletionChunk{Done: true, Error: ctx.Err()}
			return
		}
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if tu, ok := ev.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				pendingTools[int(ev.Index)] = &models.ToolCall{ID: tu.ID, Name: tu.Name}
			}
		case anthropic.ContentBlockDeltaEvent:
			switch d := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				select {
				case out <- &agent.CompletionChunk{Text: d.Text}:
				case <-ctx.Done():
					return
				}
			case anthropic.InputJSONDelta:
				if tc, ok := pendingTools[int(ev.Index)]; ok {
					tc.Arguments = append(tc.Arguments, []byte(d.PartialJSON)...)
				}
			}
		case anthropic.ContentBlockStopEvent:
			if tc, ok := pendingTools[int(ev.Index)]; ok {
				select {
				case out <- &agent.CompletionChunk{ToolCall: tc}:
				case <-ctx.Done():
					return
				}
				delete(pendingTools, int(ev.Index))
			}
		}
	}
	if err := stream.Err(); err != nil {
		out <- &agent.CompletionChunk{Done: true, Error: err}
		return
	}
	out <- &agent.CompletionChunk{Done: true}
}

func convertToAnthropicMessages(msgs []agent.CompletionMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case models.RoleAssistant:
			blocks := []anthropic.ContentBlockParamUnion{}
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var input any
				_ = json.Unmarshal(tc.Arguments, &input)
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case models.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			))
		}
	}
	return out
}

func convertToAnthropicTools(tools []agent.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		_ = json.Unmarshal(t.Schema(), &schema)
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schema.Properties,
					Required:   schema.Required,
				},
			},
		})
	}
	return out
}
