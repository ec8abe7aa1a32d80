package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getJSON(t *testing.T, h http.Handler, path string, v any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
	return rec.Code
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil, nil, "")
	h.SetReady(false)

	var resp HealthResponse
	code := getJSON(t, h.LivenessHandler(), "/healthz", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthStatusOK, resp.Status)
}

func TestHealthChecker_Readiness(t *testing.T) {
	sc, err := NewServerContext(context.Background(), nil)
	require.NoError(t, err)

	tests := []struct {
		name       string
		setup      func(h *HealthChecker)
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "ready",
			setup:      func(h *HealthChecker) {},
			wantCode:   http.StatusOK,
			wantStatus: healthStatusOK,
			wantChecks: map[string]string{"ready": healthStatusOK, "shutdown": healthStatusOK},
		},
		{
			name:       "not ready",
			setup:      func(h *HealthChecker) { h.SetReady(false) },
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: healthStatusNotReady,
			wantChecks: map[string]string{"ready": healthStatusNotReady, "shutdown": healthStatusOK},
		},
		{
			name:       "shutting down",
			setup:      func(h *HealthChecker) { _ = h.serverContext.Shutdown() },
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: healthStatusNotReady,
			wantChecks: map[string]string{"ready": healthStatusOK, "shutdown": healthStatusShuttingDown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(sc, nil, "")
			tt.setup(h)

			var resp HealthResponse
			code := getJSON(t, h.ReadinessHandler(), "/readyz", &resp)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	sc, err := NewServerContext(context.Background(), nil, WithReadOnly(true))
	require.NoError(t, err)
	sessions := NewSessionTracker(0, nil, nil)
	defer sessions.Stop()
	sessions.Register(context.Background(), "s1")

	h := NewHealthChecker(sc, sessions, "1.2.3")
	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	var resp DetailedHealthResponse
	code := getJSON(t, mux, "/healthz/detailed", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthStatusOK, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, 1, resp.ActiveSessions)
	assert.Empty(t, resp.Accounts)
	assert.True(t, resp.ReadOnly)
	assert.NotEmpty(t, resp.Uptime)

	require.NoError(t, sc.Shutdown())
	code = getJSON(t, mux, "/healthz/detailed", &resp)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, healthStatusShuttingDown, resp.Status)
}
