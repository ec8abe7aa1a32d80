// Package instrumentation provides OpenTelemetry metrics, tracing, and audit
// logging for the julian MCP server.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: HTTP transport requests
//   - active_sessions: connected MCP sessions
//   - google_api_operations_total, google_api_operation_duration_seconds: Calendar and OAuth calls
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: tool calls by name and status
//   - free_slot_searches_total, free_slot_search_duration_seconds: slot searches by mode
//   - free_slots_returned, busy_intervals_fetched: result and input sizes per search
//
// Metrics are exported to Prometheus (default), OTLP, or stdout.
//
// # Tracing
//
// Spans are created for tool invocations (tool.<name>), Google API calls
// (google.<service>.<operation>) and slot searches (slots.search).
//
// # Configuration
//
// DefaultConfig reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER,
// TRACING_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE,
// OTEL_TRACES_SAMPLER_ARG, OTEL_SERVICE_NAME, METRICS_DETAILED_LABELS,
// AUDIT_LOGGING_ENABLED and AUDIT_LOGGING_INCLUDE_PII.
package instrumentation
