package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/Spandan7724/songbird/internal/agent"
	"github.com/Spandan7724/songbird/pkg/models"
)

// GoogleProvider adapts the Gemini API to LLMProvider via
// google.golang.org/genai, streaming through the SDK's Go 1.23 range-
// over-func iterator.
type GoogleProvider struct {
	base   BaseProvider
	client *genai.Client
	model  string
}

var _ agent.LLMProvider = (*GoogleProvider)(nil)

// NewGoogleProvider builds a provider for the given API key and
// default model. apiKey may be empty; Complete then fails with a
// classified AuthenticationError.
func NewGoogleProvider(ctx context.Context, apiKey, defaultModel string) (*GoogleProvider, error) {
	p := &GoogleProvider{
		base:  NewBaseProvider("google", 3, time.Second),
		model: defaultModel,
	}
	if apiKey == "" {
		return p, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, Classify("google", 0, err)
	}
	p.client = client
	return p, nil
}

func (p *GoogleProvider) Name() string        { return "google" }
func (p *GoogleProvider) SupportsTools() bool { return true }

func (p *GoogleProvider) Models() []Model {
	return []Model{
		{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", ContextSize: 2000000, SupportsVision: true},
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", ContextSize: 1000000, SupportsVision: true},
	}
}

func (p *GoogleProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	if p.client == nil {
		return nil, Classify("google", 401, fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY is not set"))
	}
	model := req.Model
	if model == "" {
		model = p.model
	}

	contents := convertToGenaiContents(req.Messages)
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if tools := convertToGenaiTools(req.Tools); len(tools) > 0 {
		config.Tools = tools
	}

	out := make(chan *agent.CompletionChunk, 16)
	go func() {
		defer close(out)
		seq := p.client.Models.GenerateContentStream(ctx, model, contents, config)
		for resp, err := range seq {
			if ctx.Err() != nil {
				out <- &agent.CompletionChunk{Done: true, Error: ctx.Err()}
				return
			}
			if err != nil {
				out <- &agent.CompletionChunk{Done: true, Error: Classify("google", 0, err)}
				return
			}
			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if part.Text != "" {
						select {
						case out <- &agent.CompletionChunk{Text: part.Text}:
						case <-ctx.Done():
							return
						}
					}
					if part.FunctionCall != nil {
						args, _ := json.Marshal(part.FunctionCall.Args)
						select {
						case out <- &agent.CompletionChunk{ToolCall: &models.ToolCall{
							ID:        part.FunctionCall.Name,
							Name:      part.FunctionCall.Name,
							Arguments: args,
						}}:
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}
		out <- &agent.CompletionChunk{Done: true}
	}()
	return out, nil
}

func convertToGenaiContents(msgs []agent.CompletionMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleUser:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleUser))
		case models.RoleAssistant:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleModel))
		case models.RoleTool:
			var result map[string]any
			_ = json.Unmarshal([]byte(m.Content), &result)
			out = append(out, genai.NewContentFromFunctionResponse(m.ToolCallID, result, genai.RoleUser))
		}
	}
	return out
}

func convertToGenaiTools(tools []agent.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		var schema genai.Schema
		_ = json.Unmarshal(t.Schema(), &schema)
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  &schema,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}
