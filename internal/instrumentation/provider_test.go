package instrumentation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Metrics())
	assert.Nil(t, p.PrometheusHandler())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Prometheus(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := NewProvider(ctx, Config{
		ServiceName:     "julian-test",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(ctx) }()

	assert.True(t, p.Enabled())
	p.Metrics().RecordSlotSearch(ctx, SearchModeSingle, StatusSuccess, 3, 1, time.Millisecond)

	handler := p.PrometheusHandler()
	require.NotNil(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "free_slot_searches_total")
}

func TestNewProvider_Stdout(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, Config{
		ServiceName:       "julian-test",
		Enabled:           true,
		MetricsExporter:   ExporterStdout,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1,
	})
	require.NoError(t, err)
	assert.Nil(t, p.PrometheusHandler())
	assert.NoError(t, p.Shutdown(ctx))
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:         true,
		MetricsExporter: "statsd",
	})
	assert.Error(t, err)
}
