package agent

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Spandan7724/songbird/internal/metrics"
	"github.com/Spandan7724/songbird/internal/telemetry"
	"github.com/Spandan7724/songbird/pkg/models"
)

// DiffPreviewer is implemented by tools whose execution is destructive
// enough to require confirmation (file_edit, multi_edit). Preview must
// not mutate anything; it only computes what Execute would do.
type DiffPreviewer interface {
	// Preview returns the path being changed, its unified diff against
	// current content, and whether applying it would change anything.
	// hasChanges=false short-circuits the gate (nothing to confirm).
	Preview(ctx context.Context, params json.RawMessage) (path string, unifiedDiff string, hasChanges bool, err error)
}

// Executor runs ToolCalls strictly sequentially, in the order the
// model emitted them, interposing the confirmation gate in front of
// any tool that implements DiffPreviewer. This is a deliberate
// departure from this codebase's historical parallel
// Executor.ExecuteAll: §5 and §9 require ToolCall N's result persisted
// before ToolCall N+1 begins its destructive phase, which parallel
// dispatch cannot guarantee.
type Executor struct {
	Registry   *ToolRegistry
	Gate       *ConfirmationGate
	// OnResult is invoked after each ToolCall's result is computed and
	// before the next ToolCall starts, so the caller can persist it
	// immediately (the crash-safety guarantee in §5).
	OnResult func(call models.ToolCall, result *models.ToolResult)
	// Tracer, when set, wraps each tool execution in its own span.
	Tracer *telemetry.Tracer
	// Metrics, when set, records a call/failure count and a duration
	// observation for each dispatched tool (§6).
	Metrics *metrics.Registry
}

// ExecuteSequential runs every call in calls in order, returning their
// results in the same order. ctx cancellation interrupts the currently
// running tool; calls after cancellation are short-circuited to a
// "canceled" result the remaining iterations still persist, per §5's
// cancellation semantics.
func (e *Executor) ExecuteSequential(ctx context.Context, calls []models.ToolCall) []*models.ToolResult {
	results := make([]*models.ToolResult, len(calls))
	for i, call := range calls {
		var result *models.ToolResult
		if ctx.Err() != nil {
			result = &models.ToolResult{Success: false, Error: "canceled"}
		} else {
			result = e.executeOne(ctx, call)
		}
		results[i] = result
		if e.OnResult != nil {
			e.OnResult(call, result)
		}
	}
	return results
}

func (e *Executor) executeOne(ctx context.Context, call models.ToolCall) *models.ToolResult {
	if e.Tracer != nil {
		var span trace.Span
		ctx, span = e.Tracer.TraceToolExecution(ctx, call.Name)
		defer span.End()
		result := e.executeOneTraced(ctx, call)
		if !result.Success {
			telemetry.RecordError(span, errors.New(result.Error))
		}
		return result
	}
	return e.executeOneTraced(ctx, call)
}

func (e *Executor) recordMetrics(call models.ToolCall, result *models.ToolResult, started time.Time) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.ToolCalls.WithLabelValues(call.Name).Inc()
	e.Metrics.ToolDuration.WithLabelValues(call.Name).Observe(time.Since(started).Seconds())
	if !result.Success {
		e.Metrics.ToolFailures.WithLabelValues(call.Name).Inc()
	}
}

func (e *Executor) executeOneTraced(ctx context.Context, call models.ToolCall) *models.ToolResult {
	started := time.Now()
	result := e.dispatch(ctx, call)
	e.recordMetrics(call, result, started)
	return result
}

func (e *Executor) dispatch(ctx context.Context, call models.ToolCall) *models.ToolResult {
	tool, ok := e.Registry.Get(call.Name)
	if !ok {
		return e.Registry.Execute(ctx, call) // produces the uniform "unknown tool" failure
	}

	if previewer, ok := tool.(DiffPreviewer); ok {
		args, err := RepairJSON(call.Arguments, "")
		if err != nil {
			return &models.ToolResult{Success: false, Error: "invalid tool arguments: " + err.Error()}
		}
		path, diff, hasChanges, err := previewer.Preview(ctx, args)
		if err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		if hasChanges && e.Gate != nil {
			if !e.Gate.Confirm(ctx, path, diff) {
				return &models.ToolResult{Success: false, Error: declinedMessage}
			}
		}
	}

	return e.Registry.Execute(ctx, call)
}
