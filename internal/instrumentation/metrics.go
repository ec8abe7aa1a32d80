package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrAccount   = "account"
	attrMode      = "mode"
)

// Metrics records julian's metrics. A zero Metrics is a valid no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeSessions      metric.Int64UpDownCounter

	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	slotSearchesTotal    metric.Int64Counter
	slotSearchDuration   metric.Float64Histogram
	slotsReturned        metric.Int64Histogram
	busyIntervalsFetched metric.Int64Histogram

	detailedLabels bool
}

var durationBuckets = metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0)

// NewMetrics creates all instruments on meter.
// detailedLabels adds the account label to tool metrics.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error
	newCounter := func(name, desc, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			err = fmt.Errorf("failed to create %s counter: %w", name, err)
		}
		return c
	}
	newSeconds := func(name, desc string) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"), durationBuckets)
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
		return h
	}
	newCount := func(name, desc, unit string) metric.Int64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Int64Histogram
		h, err = meter.Int64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit),
			metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 25, 50, 100, 250, 500))
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
		return h
	}

	m.httpRequestsTotal = newCounter("http_requests_total", "Total number of HTTP requests", "{request}")
	m.httpRequestDuration = newSeconds("http_request_duration_seconds", "HTTP request duration in seconds")
	m.googleAPIOperationsTotal = newCounter("google_api_operations_total", "Total number of Google API operations", "{operation}")
	m.googleAPIOperationDuration = newSeconds("google_api_operation_duration_seconds", "Google API operation duration in seconds")
	m.toolInvocationsTotal = newCounter("mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}")
	m.toolDuration = newSeconds("mcp_tool_duration_seconds", "MCP tool execution duration in seconds")
	m.slotSearchesTotal = newCounter("free_slot_searches_total", "Total number of free slot searches", "{search}")
	m.slotSearchDuration = newSeconds("free_slot_search_duration_seconds", "Free slot search duration in seconds, including calendar fetches")
	m.slotsReturned = newCount("free_slots_returned", "Number of free slots returned per search", "{slot}")
	m.busyIntervalsFetched = newCount("busy_intervals_fetched", "Number of busy intervals fetched per search, before merging", "{interval}")
	if err != nil {
		return nil, err
	}

	m.activeSessions, err = meter.Int64UpDownCounter("active_sessions",
		metric.WithDescription("Number of active MCP sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_sessions gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records a Google API call.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records an MCP tool invocation. The account label is
// only added when detailed labels are enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	kv := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && account != "" {
		kv = append(kv, attribute.String(attrAccount, account))
	}
	attrs := metric.WithAttributes(kv...)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSlotSearch records one free slot search. mode is SearchModeSingle or
// SearchModeMulti. busy is the number of fetched busy intervals before merging.
// slots and busy are only recorded for successful searches.
func (m *Metrics) RecordSlotSearch(ctx context.Context, mode, status string, slots, busy int, duration time.Duration) {
	if m == nil || m.slotSearchesTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMode, mode),
		attribute.String(attrStatus, status),
	)
	m.slotSearchesTotal.Add(ctx, 1, attrs)
	m.slotSearchDuration.Record(ctx, duration.Seconds(), attrs)
	if status == StatusSuccess {
		modeAttr := metric.WithAttributes(attribute.String(attrMode, mode))
		m.slotsReturned.Record(ctx, int64(slots), modeAttr)
		m.busyIntervalsFetched.Record(ctx, int64(busy), modeAttr)
	}
}

// IncrementActiveSessions increments the active sessions counter.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active sessions counter.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
