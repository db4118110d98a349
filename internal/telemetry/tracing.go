// Package telemetry wraps OpenTelemetry tracing for the orchestrator:
// one span per turn, per provider call and per tool execution. Spans
// come from the TracerProvider that NewTracer builds (and also installs
// as the global one); it has no exporter, so spans are recorded in
// process only, and TraceID() exposes the active trace id for log
// correlation.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is a thin, domain-specific facade over an otel Tracer.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer builds a Tracer backed by an in-process TracerProvider
// sampling every span (no exporter is attached by default, so spans
// are recorded but not shipped anywhere; wiring a batcher/exporter is
// a deployment concern out of this package's scope).
func NewTracer(serviceName string) (*Tracer, func(context.Context) error) {
	res, err := resource.New(context.Background(), resource.WithAttributes(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		res = resource.Default()
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)
	return &Tracer{tracer: provider.Tracer(serviceName)}, provider.Shutdown
}

// Start opens a span named name under ctx's existing span, if any.
func (t *Tracer) Start(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithSpanKind(kind), trace.WithAttributes(attrs...))
}

// RecordError marks span failed and attaches err, a no-op for nil err.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceTurn opens the root span for one orchestrator Run call.
func (t *Tracer) TraceTurn(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	return t.Start(ctx, "orchestrator.turn", trace.SpanKindInternal,
		attribute.String("session.id", sessionID))
}

// TraceProviderCall opens a span around one LLMProvider.Complete call.
func (t *Tracer) TraceProviderCall(ctx context.Context, provider, model string) (context.Context, trace.Span) {
	return t.Start(ctx, fmt.Sprintf("llm.%s", provider), trace.SpanKindClient,
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model))
}

// TraceToolExecution opens a span around one tool's Execute call.
func (t *Tracer) TraceToolExecution(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return t.Start(ctx, fmt.Sprintf("tool.%s", toolName), trace.SpanKindInternal,
		attribute.String("tool.name", toolName))
}

// TraceID returns the active span's trace id, or "" if none is
// recording, for correlating log lines with a trace.
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}
