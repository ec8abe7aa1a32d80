package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer used for all julian spans.
const TracerName = "github.com/teemow/julian"

// Span attribute keys.
const (
	SpanAttrTool       = "mcp.tool"
	SpanAttrAccount    = "mcp.account"
	SpanAttrService    = "google.service"
	SpanAttrOperation  = "google.operation"
	SpanAttrSearchMode = "slots.mode"
	SpanAttrHorizon    = "slots.horizon_days"
	SpanAttrSlotCount  = "slots.count"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartToolSpan starts a server span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName, account string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}
	if account != "" {
		attrs = append(attrs, attribute.String(SpanAttrAccount, account))
	}
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartGoogleAPISpan starts a client span named google.<service>.<operation>.
func StartGoogleAPISpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "google."+service+"."+operation,
		trace.WithAttributes(
			attribute.String(SpanAttrService, service),
			attribute.String(SpanAttrOperation, operation),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartSlotSearchSpan starts an internal span around a free slot search.
func StartSlotSearchSpan(ctx context.Context, mode string, horizonDays int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "slots.search",
		trace.WithAttributes(
			attribute.String(SpanAttrSearchMode, mode),
			attribute.Int(SpanAttrHorizon, horizonDays),
		),
	)
}

// EndSpan records err on the span, or marks it OK, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// GetTraceID returns the trace ID from the current span in context,
// or an empty string if there is none.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
