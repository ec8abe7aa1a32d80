package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumFor(t *testing.T, data metricdata.Aggregation, kv ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	want := attribute.NewSet(kv...)
	var total int64
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_RecordSlotSearch(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordSlotSearch(ctx, SearchModeSingle, StatusSuccess, 17, 2, 40*time.Millisecond)
	m.RecordSlotSearch(ctx, SearchModeSingle, StatusSuccess, 0, 0, 10*time.Millisecond)
	m.RecordSlotSearch(ctx, SearchModeMulti, StatusError, 0, 0, 5*time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, data["free_slot_searches_total"],
		attribute.String(attrMode, SearchModeSingle), attribute.String(attrStatus, StatusSuccess)))
	assert.Equal(t, int64(1), sumFor(t, data["free_slot_searches_total"],
		attribute.String(attrMode, SearchModeMulti), attribute.String(attrStatus, StatusError)))

	hist, ok := data["free_slots_returned"].(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1, "failed searches do not record result sizes")
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, int64(17), hist.DataPoints[0].Sum)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	tests := []struct {
		name     string
		detailed bool
		wantAttr []attribute.KeyValue
	}{
		{
			name:     "account label dropped by default",
			detailed: false,
			wantAttr: []attribute.KeyValue{attribute.String(attrTool, "calendar_get_now"), attribute.String(attrStatus, StatusSuccess)},
		},
		{
			name:     "account label with detailed labels",
			detailed: true,
			wantAttr: []attribute.KeyValue{
				attribute.String(attrTool, "calendar_get_now"),
				attribute.String(attrStatus, StatusSuccess),
				attribute.String(attrAccount, "work"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, reader := newTestMetrics(t, tt.detailed)
			m.RecordToolInvocation(context.Background(), "calendar_get_now", StatusSuccess, "work", time.Millisecond)

			data := collect(t, reader)
			assert.Equal(t, int64(1), sumFor(t, data["mcp_tool_invocations_total"], tt.wantAttr...))
		})
	}
}

func TestMetrics_RecordHTTPAndGoogleAPI(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 100*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 50*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationFreeBusy, StatusSuccess, 200*time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, data["http_requests_total"],
		attribute.String(attrMethod, "POST"), attribute.String(attrPath, "/mcp"), attribute.String(attrStatus, "200")))
	assert.Equal(t, int64(1), sumFor(t, data["google_api_operations_total"],
		attribute.String(attrService, ServiceCalendar), attribute.String(attrOperation, OperationFreeBusy), attribute.String(attrStatus, StatusSuccess)))
}

func TestMetrics_ActiveSessions(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.IncrementActiveSessions(ctx)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumFor(t, data["active_sessions"]))
}

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, m := range []*Metrics{nil, {}} {
		assert.NotPanics(t, func() {
			m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
			m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationList, StatusSuccess, time.Millisecond)
			m.RecordToolInvocation(ctx, "x", StatusSuccess, "", time.Millisecond)
			m.RecordSlotSearch(ctx, SearchModeSingle, StatusSuccess, 1, 1, time.Millisecond)
			m.IncrementActiveSessions(ctx)
			m.DecrementActiveSessions(ctx)
		})
	}
}
