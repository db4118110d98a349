package providers

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Spandan7724/songbird/internal/agent"
)

// OllamaProvider talks to a local Ollama daemon through its
// OpenAI-compatible endpoint. No API key is required, so construction
// never fails for missing credentials; a reachability failure at call
// time classifies as ConnectionError with a "start the daemon" hint.
type OllamaProvider struct {
	base   BaseProvider
	client *openai.Client
	model  string
}

var _ agent.LLMProvider = (*OllamaProvider)(nil)

// NewOllamaProvider builds a provider against baseURL (default
// http://localhost:11434/v1 when empty).
func NewOllamaProvider(baseURL, defaultModel string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = baseURL
	return &OllamaProvider{
		base:   NewBaseProvider("ollama", 2, 500*time.Millisecond),
		client: openai.NewClientWithConfig(cfg),
		model:  defaultModel,
	}
}

func (p *OllamaProvider) Name() string        { return "ollama" }
func (p *OllamaProvider) SupportsTools() bool { return true }

func (p *OllamaProvider) Models() []Model {
	return []Model{
		{ID: "llama3.1", Name: "Llama 3.1", ContextSize: 128000},
		{ID: "qwen2.5-coder", Name: "Qwen2.5 Coder", ContextSize: 32768},
	}
}

func (p *OllamaProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	out := make(chan *agent.CompletionChunk, 16)
	var stream *openai.ChatCompletionStream
	err := p.base.Retry(ctx, func(err error) bool {
		return classifyMessage(err.Error()) == KindConnection
	}, func() error {
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
		return nil, Classify("ollama", StatusFromMessage(fmt.Sprint(err)), err)
	}
	go func() {
		defer close(out)
		defer stream.Close()
		processOpenAIStream(ctx, stream, out)
	}()
	return out, nil
}
