package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("METRICS_EXPORTER", "")
	t.Setenv("INSTRUMENTATION_ENABLED", "")
	t.Setenv("TRACING_EXPORTER", "")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "")
	t.Setenv("AUDIT_LOGGING_ENABLED", "")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "")

	cfg := DefaultConfig()
	assert.Equal(t, "julian", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, ExporterPrometheus, cfg.MetricsExporter)
	assert.Equal(t, ExporterNone, cfg.TracingExporter)
	assert.InDelta(t, 0.1, cfg.TraceSamplingRate, 1e-9)
	assert.True(t, cfg.AuditLogging.Enabled)
	assert.False(t, cfg.AuditLogging.IncludePII)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("TRACING_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "not-a-number")
	t.Setenv("METRICS_DETAILED_LABELS", "yes-please")

	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, ExporterOTLP, cfg.TracingExporter)
	assert.Equal(t, "collector:4318", cfg.OTLPEndpoint)
	assert.InDelta(t, 0.1, cfg.TraceSamplingRate, 1e-9, "invalid values fall back to defaults")
	assert.False(t, cfg.DetailedLabels)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "empty", config: Config{}},
		{name: "prometheus", config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone}},
		{name: "otlp with endpoint", config: Config{MetricsExporter: ExporterOTLP, OTLPEndpoint: "x:4318"}},
		{name: "otlp metrics without endpoint", config: Config{MetricsExporter: ExporterOTLP}, wantErr: true},
		{name: "otlp traces without endpoint", config: Config{TracingExporter: ExporterOTLP}, wantErr: true},
		{name: "unknown metrics exporter", config: Config{MetricsExporter: "statsd"}, wantErr: true},
		{name: "unknown tracing exporter", config: Config{TracingExporter: "zipkin"}, wantErr: true},
		{name: "sampling rate too high", config: Config{TraceSamplingRate: 1.5}, wantErr: true},
		{name: "negative sampling rate", config: Config{TraceSamplingRate: -0.1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
