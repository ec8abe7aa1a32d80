package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(kvs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestStartToolSpan(t *testing.T) {
	recorder := useSpanRecorder(t)

	ctx, span := StartToolSpan(context.Background(), "calendar_find_free_slots", "work")
	assert.NotEmpty(t, GetTraceID(ctx))
	EndSpan(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.calendar_find_free_slots", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "calendar_find_free_slots", attrs[SpanAttrTool])
	assert.Equal(t, "work", attrs[SpanAttrAccount])
}

func TestStartToolSpan_NoAccount(t *testing.T) {
	recorder := useSpanRecorder(t)

	_, span := StartToolSpan(context.Background(), "calendar_get_now", "")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotContains(t, attrMap(spans[0].Attributes()), SpanAttrAccount)
}

func TestStartGoogleAPISpan_Error(t *testing.T) {
	recorder := useSpanRecorder(t)

	_, span := StartGoogleAPISpan(context.Background(), ServiceCalendar, OperationFreeBusy)
	EndSpan(span, errors.New("quota exceeded"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "google.calendar.freebusy", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "quota exceeded", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1, "error is recorded as a span event")
}

func TestStartSlotSearchSpan(t *testing.T) {
	recorder := useSpanRecorder(t)

	parentCtx, parent := StartToolSpan(context.Background(), "calendar_find_free_slots", "")
	_, child := StartSlotSearchSpan(parentCtx, SearchModeMulti, 14)
	EndSpan(child, nil)
	EndSpan(parent, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "slots.search", spans[0].Name())
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent().SpanID())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, SearchModeMulti, attrs[SpanAttrSearchMode])
	assert.Equal(t, int64(14), attrs[SpanAttrHorizon])
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}
