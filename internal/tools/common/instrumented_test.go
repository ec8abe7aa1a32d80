package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/julian/internal/instrumentation"
	"github.com/teemow/julian/internal/server"
)

type testInstrumentation struct {
	sc     *server.ServerContext
	reader *sdkmetric.ManualReader
	audit  *bytes.Buffer
}

func newTestInstrumentation(t *testing.T) *testInstrumentation {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := instrumentation.NewMetrics(mp.Meter("test"), true)
	require.NoError(t, err)
	sc.SetMetrics(metrics)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sc.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrumentation.AuditLoggingConfig{Enabled: true}))

	return &testInstrumentation{sc: sc, reader: reader, audit: &buf}
}

func (ti *testInstrumentation) counter(t *testing.T, name string, kv ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, ti.reader.Collect(context.Background(), &rm))

	want := attribute.NewSet(kv...)
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if dp.Attributes.Equals(&want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func (ti *testInstrumentation) auditRecords(t *testing.T) []map[string]any {
	t.Helper()
	var records []map[string]any
	dec := json.NewDecoder(bytes.NewReader(ti.audit.Bytes()))
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		records = append(records, rec)
	}
	return records
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandler_NoInstrumentation(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), nil)
	require.NoError(t, err)
	defer sc.Shutdown()

	called := false
	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "success", ResultText(result))
}

func TestInstrumentedToolHandler_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		result     *mcp.CallToolResult
		err        error
		wantStatus string
		wantMsg    string
		wantError  string
	}{
		{
			name:       "success",
			result:     mcp.NewToolResultText("ok"),
			wantStatus: instrumentation.StatusSuccess,
			wantMsg:    "tool_executed",
		},
		{
			name:       "error result",
			result:     mcp.NewToolResultError("eventId is required"),
			wantStatus: instrumentation.StatusError,
			wantMsg:    "tool_failed",
			wantError:  "eventId is required",
		},
		{
			name:       "go error",
			err:        errors.New("boom"),
			wantStatus: instrumentation.StatusError,
			wantMsg:    "tool_failed",
			wantError:  "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ti := newTestInstrumentation(t)
			ti.sc.SetUserEmail("work", "jane@example.com")

			wrapped := InstrumentedToolHandler("calendar_get_event", ti.sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return tt.result, tt.err
			})

			result, err := wrapped(context.Background(), callRequest(map[string]any{"account": "work"}))
			assert.Equal(t, tt.err, err)
			assert.Same(t, tt.result, result)

			assert.Equal(t, int64(1), ti.counter(t, "mcp_tool_invocations_total",
				attribute.String("tool", "calendar_get_event"),
				attribute.String("status", tt.wantStatus),
				attribute.String("account", "work"),
			))

			records := ti.auditRecords(t)
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantMsg, records[0]["msg"])
			assert.Equal(t, "calendar_get_event", records[0]["tool"])
			assert.Equal(t, "work", records[0]["account"])
			assert.Equal(t, "example.com", records[0]["user_domain"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, records[0]["error"])
			} else {
				assert.NotContains(t, records[0], "error")
			}
		})
	}
}

func TestInstrumentedToolHandlerWithService(t *testing.T) {
	ti := newTestInstrumentation(t)

	wrapped := InstrumentedToolHandlerWithService("calendar_query_freebusy", "calendar", "freebusy", ti.sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})

	ctx := server.WithAccount(context.Background(), "personal")
	_, err := wrapped(ctx, callRequest(nil))
	require.NoError(t, err)

	assert.Equal(t, int64(1), ti.counter(t, "google_api_operations_total",
		attribute.String("service", "calendar"),
		attribute.String("operation", "freebusy"),
		attribute.String("status", instrumentation.StatusSuccess),
	))

	records := ti.auditRecords(t)
	require.Len(t, records, 1)
	assert.Equal(t, "personal", records[0]["account"])
	assert.Equal(t, "calendar", records[0]["service"])
	assert.Equal(t, "freebusy", records[0]["operation"])
	assert.Equal(t, "unknown", records[0]["user_domain"])
}

func TestResultText(t *testing.T) {
	assert.Equal(t, "", ResultText(nil))
	assert.Equal(t, "", ResultText(&mcp.CallToolResult{}))
	assert.Equal(t, "hello", ResultText(mcp.NewToolResultText("hello")))
}
