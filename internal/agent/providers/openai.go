package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Spandan7724/songbird/internal/agent"
	"github.com/Spandan7724/songbird/pkg/models"
)

// OpenAIProvider adapts the OpenAI chat-completions API to LLMProvider.
// Constructing it with an empty apiKey is legal (non-fatal per §4.2.5):
// the client is left nil and Complete fails with a classified
// AuthenticationError at call time instead of at construction time.
type OpenAIProvider struct {
	base   BaseProvider
	client *openai.Client
	model  string
}

var _ agent.LLMProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds an OpenAI provider for the given API key and
// default model.
func NewOpenAIProvider(apiKey, defaultModel string) *OpenAIProvider {
	p := &OpenAIProvider{
		base:  NewBaseProvider("openai", 3, time.Second),
		model: defaultModel,
	}
	if apiKey != "" {
		p.client = openai.NewClient(apiKey)
	}
	return p
}

func (p *OpenAIProvider) Name() string        { return "openai" }
func (p *OpenAIProvider) SupportsTools() bool { return true }

func (p *OpenAIProvider) Models() []Model {
	return []Model{
		{ID: "gpt-4o", Name: "GPT-4o", ContextSize: 128000, SupportsVision: true},
		{ID: "gpt-4o-mini", Name: "GPT-4o mini", ContextSize: 128000, SupportsVision: true},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", ContextSize: 128000, SupportsVision: true},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", ContextSize: 16385, SupportsVision: false},
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	if p.client == nil {
		return nil, Classify("openai", 401, fmt.Errorf("OPENAI_API_KEY is not set"))
	}
	out := make(chan *agent.CompletionChunk, 16)
	model := req.Model
	if model == "" {
		model = p.model
	}

	var stream *openai.ChatCompletionStream
	err := p.base.Retry(ctx, isRetryableOpenAI, func() error {
		s, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:     model,
			Messages:  convertToOpenAIMessages(req.System, req.Messages),
			Stream:    true,
			MaxTokens: req.MaxTokens,
			Tools:     convertToOpenAITools(req.Tools),
		})
		if err != nil {
			return err
		}
		stream = s
		return nil
	})
	if err != nil {
		status := StatusFromMessage(err.Error())
		return nil, Classify("openai", status, err)
	}

	go func() {
		defer close(out)
		defer stream.Close()
		processOpenAIStream(ctx, stream, out)
	}()
	return out, nil
}

func isRetryableOpenAI(err error) bool {
	k := classifyMessage(err.Error())
	return k == KindRateLimit || k == KindConnection
}

func processOpenAIStream(ctx context.Context, stream *openai.ChatCompletionStream, out chan<- *agent.CompletionChunk) {
	toolCalls := map[int]*models.ToolCall{}
	order := []int{}

	flush := func() {
		for _, idx := range order {
			tc := toolCalls[idx]
			if tc == nil || tc.Name == "" {
				continue
			}
			select {
			case out <- &agent.CompletionChunk{ToolCall: tc}:
			case <-ctx.Done():
			}
		}
	}

	for {
		if ctx.Err() != nil {
			out <- &agent.CompletionChunk{Done: true, Error: ctx.Err()}
			return
		}
		resp, err := stream.Recv()
		if err == io.EOF {
			flush()
			out <- &agent.CompletionChunk{Done: true}
			return
		}
		if err != nil {
			out <- &agent.CompletionChunk{Done: true, Error: err}
			return
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		if choice.Delta.Content != "" {
			select {
			case out <- &agent.CompletionChunk{Text: choice.Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
		for _, d := range choice.Delta.ToolCalls {
			idx := 0
			if d.Index != nil {
				idx = *d.Index
			}
			tc, ok := toolCalls[idx]
			if !ok {
				tc = &models.ToolCall{}
				toolCalls[idx] = tc
				order = append(order, idx)
			}
			if d.ID != "" {
				tc.ID = d.ID
			}
			if d.Function.Name != "" {
				tc.Name = d.Function.Name
			}
			if d.Function.Arguments != "" {
				tc.Arguments = append(tc.Arguments, []byte(d.Function.Arguments)...)
			}
		}
		if choice.FinishReason == "tool_calls" {
			flush()
			out <- &agent.CompletionChunk{Done: true}
			return
		}
		if choice.FinishReason != "" {
			out <- &agent.CompletionChunk{Done: true}
			return
		}
	}
}

func convertToOpenAIMessages(system string, msgs []agent.CompletionMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		switch m.Role {
		case models.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		case models.RoleAssistant:
			cm := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			for _, tc := range m.ToolCalls {
				cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			out = append(out, cm)
		default:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		}
	}
	return out
}

func convertToOpenAITools(tools []agent.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		var params map[string]any
		if err := json.Unmarshal(t.Schema(), &params); err != nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		})
	}
	return out
}
