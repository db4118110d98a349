package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/Spandan7724/songbird/internal/metrics"
	"github.com/Spandan7724/songbird/internal/telemetry"
	"github.com/Spandan7724/songbird/pkg/models"
)

// synthesisInstruction is appended to the system prompt for the final
// tools-disabled turn (§4.4 step 4). Tool outputs are already in the
// transcript and already shown to the user by the time this call runs;
// the model should acknowledge them, not restate their raw content.
const synthesisInstruction = "\n\nThe following tool outputs have already been displayed to the user. Acknowledge the results in your reply; do not repeat their raw content."

// kindedError is satisfied by providers.ProviderError without agent
// importing the providers package (which itself imports agent).
type kindedError interface {
	error
	KindString() string
}

// Orchestrator drives the per-turn conversation state machine (§4.4):
// Idle -> AwaitingModel -> (DispatchingTools -> AwaitingModel)* ->
// a final tools-disabled synthesis call -> Terminal|Failed. It owns no
// persistence itself; Run calls onMessage after every message it
// appends so the caller's session store can flush it before the next
// step runs.
type Orchestrator struct {
	Provider     LLMProvider
	Registry     *ToolRegistry
	Executor     *Executor
	Config       *LoopConfig
	SystemPrompt string
	// Tracer, when set, emits a span per turn, provider call and tool
	// execution; nil disables tracing entirely. FastMode forces this to
	// nil regardless of what NewOrchestrator was given.
	Tracer *telemetry.Tracer
	// Metrics, when set, records provider call/error counts and turn
	// duration (§6).
	Metrics *metrics.Registry
}

// NewOrchestrator wires a provider, a tool registry and a confirmation
// gate into a ready-to-run Orchestrator. tracer and metricsReg may be
// nil to disable tracing/instrumentation. When cfg.FastMode is set,
// tracing is disabled regardless of tracer, trading observability for
// lower per-turn latency.
func NewOrchestrator(provider LLMProvider, registry *ToolRegistry, gate *ConfirmationGate, cfg *LoopConfig, systemPrompt string, tracer *telemetry.Tracer, metricsReg *metrics.Registry) *Orchestrator {
	cfg = sanitizeLoopConfig(cfg)
	if cfg.FastMode {
		tracer = nil
	}
	return &Orchestrator{
		Provider:     provider,
		Registry:     registry,
		Executor:     &Executor{Registry: registry, Gate: gate, Tracer: tracer, Metrics: metricsReg},
		Config:       cfg,
		SystemPrompt: systemPrompt,
		Tracer:       tracer,
		Metrics:      metricsReg,
	}
}

// Run appends userText as a user Message and drives the turn to
// completion, appending every assistant and tool Message it produces
// onto session.Messages. A context canceled while AwaitingModel (no
// assistant message persisted yet) leaves the user message as the
// last entry and returns ErrCanceled; no orphan assistant message is
// ever written.
func (o *Orchestrator) Run(ctx context.Context, session *models.Session, userText string, onMessage func(models.Message)) error {
	if o.Config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Config.TurnTimeout)
		defer cancel()
	}

	turnStart := time.Now()
	if o.Metrics != nil {
		defer func() {
			o.Metrics.TurnDuration.Observe(time.Since(turnStart).Seconds())
		}()
	}

	var runErr error
	if o.Tracer != nil {
		var span trace.Span
		ctx, span = o.Tracer.TraceTurn(ctx, session.ID)
		defer func() {
			telemetry.RecordError(span, runErr)
			span.End()
		}()
	}

	persist := func(m models.Message) {
		session.Messages = append(session.Messages, m)
		if onMessage != nil {
			onMessage(m)
		}
	}

	persist(models.Message{ID: uuid.NewString(), Role: models.RoleUser, Content: userText, Timestamp: time.Now()})

	var toolsUsed bool
	var lastCalls []models.ToolCall
	var lastResults []*models.ToolResult

	for iteration := 0; ; iteration++ {
		if err := ctx.Err(); err != nil {
			o.Config.Logger.Warn("turn canceled awaiting model", "iteration", iteration)
			runErr = ErrCanceled
			return runErr
		}

		if iteration >= o.Config.MaxIterations {
			o.Config.Logger.Warn("turn aborted: too many tool iterations", "max", o.Config.MaxIterations)
			persist(o.synthesize(ctx, session, lastCalls, lastResults))
			runErr = ErrMaxIterations
			return runErr
		}

		assistantMsg, err := o.callModel(ctx, o.buildRequest(session, true))
		if err != nil {
			if toolsUsed {
				o.Config.Logger.Warn("provider call failed after tool dispatch, falling back to summary", "error", err)
				persist(models.Message{
					ID:        uuid.NewString(),
					Role:      models.RoleAssistant,
					Content:   fallbackSummary(lastCalls, lastResults),
					Timestamp: time.Now(),
				})
				return nil
			}
			o.Config.Logger.Error("provider call failed", "error", err)
			runErr = err
			return runErr
		}

		if len(assistantMsg.ToolCalls) == 0 {
			if !toolsUsed {
				persist(assistantMsg)
				return nil
			}
			// The model stopped emitting tool calls but step 4's
			// dedicated tools-disabled synthesis call hasn't run yet;
			// this response is discarded in favor of that call.
			persist(o.synthesize(ctx, session, lastCalls, lastResults))
			return nil
		}

		persist(assistantMsg)
		toolsUsed = true
		lastCalls = assistantMsg.ToolCalls

		o.Executor.OnResult = func(call models.ToolCall, result *models.ToolResult) {
			content, _ := json.Marshal(result)
			persist(models.Message{
				ID:         uuid.NewString(),
				Role:       models.RoleTool,
				Content:    string(content),
				ToolCallID: call.ID,
				Timestamp:  time.Now(),
			})
		}
		lastResults = o.Executor.ExecuteSequential(ctx, assistantMsg.ToolCalls)
	}
}

// synthesize issues the tools-disabled final turn (§4.4 step 4). If
// the call itself fails, it falls back to a deterministic summary of
// the last round of tool calls rather than surfacing the error, since
// the tool actions already happened and the user has already seen
// their results.
func (o *Orchestrator) synthesize(ctx context.Context, session *models.Session, calls []models.ToolCall, results []*models.ToolResult) models.Message {
	final, err := o.callModel(ctx, o.buildSynthesisRequest(session))
	if err != nil {
		o.Config.Logger.Warn("synthesis call failed, falling back to summary", "error", err)
		return models.Message{
			ID:        uuid.NewString(),
			Role:      models.RoleAssistant,
			Content:   fallbackSummary(calls, results),
			Timestamp: time.Now(),
		}
	}
	return final
}

// fallbackSummary renders a deterministic "✓ file created" / "✗
// shell_exec failed: ..." line per tool call, used when the model
// can't be reached for the closing turn.
func fallbackSummary(calls []models.ToolCall, results []*models.ToolResult) string {
	if len(calls) == 0 {
		return "Done."
	}
	lines := make([]string, 0, len(calls))
	for i, call := range calls {
		var result *models.ToolResult
		if i < len(results) {
			result = results[i]
		}
		if result != nil && !result.Success {
			lines = append(lines, fmt.Sprintf("✗ %s failed: %s", call.Name, result.Error))
			continue
		}
		lines = append(lines, fmt.Sprintf("✓ %s", toolActionLabel(call.Name)))
	}
	return strings.Join(lines, "\n")
}

// toolActionLabel renders a past-tense summary of what a tool did,
// for tools whose name alone doesn't read naturally in a checklist.
func toolActionLabel(name string) string {
	switch name {
	case "file_create":
		return "file created"
	case "file_edit", "multi_edit":
		return "file edited"
	case "todo_write":
		return "todo list updated"
	default:
		return name
	}
}

func (o *Orchestrator) buildRequest(session *models.Session, withTools bool) *CompletionRequest {
	model := session.ProviderConfig.ResolvedModel
	if model == "" {
		model = session.ProviderConfig.Model
	}
	req := &CompletionRequest{
		Model:     model,
		System:    o.SystemPrompt,
		Messages:  toCompletionMessages(session.Messages),
		MaxTokens: o.Config.MaxTokens,
	}
	if withTools {
		req.Tools = o.Registry.AsLLMTools()
	}
	return req
}

// buildSynthesisRequest is buildRequest's tools-disabled variant for
// step 4, carrying the instruction paragraph so the model knows not to
// restate the transcript's tool output verbatim.
func (o *Orchestrator) buildSynthesisRequest(session *models.Session) *CompletionRequest {
	req := o.buildRequest(session, false)
	req.System = o.SystemPrompt + synthesisInstruction
	return req
}

func toCompletionMessages(msgs []models.Message) []CompletionMessage {
	out := make([]CompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, CompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
		})
	}
	return out
}

// callModel drains one streamed completion into a single assistant
// Message. A mid-stream cancellation or a Done chunk carrying Error
// propagates without producing a partial Message.
func (o *Orchestrator) callModel(ctx context.Context, req *CompletionRequest) (models.Message, error) {
	var span trace.Span
	if o.Tracer != nil {
		ctx, span = o.Tracer.TraceProviderCall(ctx, o.Provider.Name(), req.Model)
		defer span.End()
	}
	if o.Metrics != nil {
		o.Metrics.ProviderCalls.WithLabelValues(o.Provider.Name()).Inc()
	}

	chunks, err := o.Provider.Complete(ctx, req)
	if err != nil {
		o.recordProviderError(err)
		if span != nil {
			telemetry.RecordError(span, err)
		}
		return models.Message{}, err
	}

	var text strings.Builder
	var toolCalls []models.ToolCall
	for chunk := range chunks {
		if chunk.Error != nil {
			o.recordProviderError(chunk.Error)
			return models.Message{}, chunk.Error
		}
		if chunk.Text != "" {
			text.WriteString(chunk.Text)
		}
		if chunk.ToolCall != nil {
			toolCalls = append(toolCalls, *chunk.ToolCall)
		}
	}
	if err := ctx.Err(); err != nil {
		return models.Message{}, ErrCanceled
	}

	return models.Message{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   text.String(),
		ToolCalls: toolCalls,
		Timestamp: time.Now(),
	}, nil
}

func (o *Orchestrator) recordProviderError(err error) {
	if o.Metrics == nil {
		return
	}
	kind := "GenericError"
	var ke kindedError
	if errors.As(err, &ke) {
		kind = ke.KindString()
	}
	o.Metrics.ProviderErrors.WithLabelValues(o.Provider.Name(), kind).Inc()
}
