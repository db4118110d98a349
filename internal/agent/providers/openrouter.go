package providers

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Spandan7724/songbird/internal/agent"
)

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible API.
// Model IDs are vendor-qualified ("provider/model-name"); the caller is
// responsible for passing a fully qualified model string.
type OpenRouterProvider struct {
	base   BaseProvider
	client *openai.Client
	model  string
}

var _ agent.LLMProvider = (*OpenRouterProvider)(nil)

// NewOpenRouterProvider builds a provider for the given API key and
// default (vendor-qualified) model.
func NewOpenRouterProvider(apiKey, defaultModel string) *OpenRouterProvider {
	p := &OpenRouterProvider{
		base:  NewBaseProvider("openrouter", 3, time.Second),
		model: defaultModel,
	}
	if apiKey != "" {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = "https://openrouter.ai/api/v1"
		p.client = openai.NewClientWithConfig(cfg)
	}
	return p
}

func (p *OpenRouterProvider) Name() string        { return "openrouter" }
func (p *OpenRouterProvider) SupportsTools() bool { return true }

func (p *OpenRouterProvider) Models() []Model {
	return []Model{
		{ID: "anthropic/claude-sonnet-4.5", Name: "Claude Sonnet 4.5", ContextSize: 200000},
		{ID: "openai/gpt-4o", Name: "GPT-4o", ContextSize: 128000},
		{ID: "google/gemini-2.0-flash", Name: "Gemini 2.0 Flash", ContextSize: 1000000},
	}
}

func (p *OpenRouterProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	if p.client == nil {
		return nil, Classify("openrouter", 401, fmt.Errorf("OPENROUTER_API_KEY is not set"))
	}
	model := req.Model
	if model == "" {
		model = p.model
	}
	out := make(chan *agent.CompletionChunk, 16)
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
		return nil, Classify("openrouter", StatusFromMessage(err.Error()), err)
	}
	go func() {
		defer close(out)
		defer stream.Close()
		processOpenAIStream(ctx, stream, out)
	}()
	return out, nil
}
