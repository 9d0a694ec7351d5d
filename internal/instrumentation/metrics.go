package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod   = "method"
	attrPath     = "path"
	attrStatus   = "status"
	attrTool     = "tool"
	attrCommand  = "command"
	attrExitCode = "exit_code"
)

// Metrics provides methods for recording observability metrics.
// The zero value is a valid no-op recorder.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// nox process metrics
	noxCommandsTotal   metric.Int64Counter
	noxCommandDuration metric.Float64Histogram
	noxActiveProcesses metric.Int64UpDownCounter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels adds the exit code label to nox run metrics
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.noxCommandsTotal, err = meter.Int64Counter(
		"nox_commands_total",
		metric.WithDescription("Total number of nox invocations"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create nox_commands_total counter: %w", err)
	}

	// nox sessions routinely run for minutes, so the buckets reach the default run timeout.
	m.noxCommandDuration, err = meter.Float64Histogram(
		"nox_command_duration_seconds",
		metric.WithDescription("nox invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create nox_command_duration_seconds histogram: %w", err)
	}

	m.noxActiveProcesses, err = meter.Int64UpDownCounter(
		"nox_active_processes",
		metric.WithDescription("Number of nox child processes currently running"),
		metric.WithUnit("{process}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create nox_active_processes gauge: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
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

// RecordNoxCommand records one finished nox invocation.
//
// Parameters:
//   - command: CommandList or CommandRun
//   - status: StatusSuccess, StatusError or StatusTimeout
//   - exitCode: process exit code, only used as a label when detailed labels are on
//   - duration: wall time from spawn to reap
func (m *Metrics) RecordNoxCommand(ctx context.Context, command, status string, exitCode int, duration time.Duration) {
	if m == nil || m.noxCommandsTotal == nil || m.noxCommandDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrCommand, command),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && command == CommandRun && status == StatusSuccess {
		attrs = append(attrs, attribute.String(attrExitCode, ExitCodeLabel(exitCode)))
	}

	opt := metric.WithAttributes(attrs...)
	m.noxCommandsTotal.Add(ctx, 1, opt)
	m.noxCommandDuration.Record(ctx, duration.Seconds(), opt)
}

// ProcessStarted increments the running nox process gauge.
func (m *Metrics) ProcessStarted(ctx context.Context, command string) {
	if m == nil || m.noxActiveProcesses == nil {
		return
	}
	m.noxActiveProcesses.Add(ctx, 1, metric.WithAttributes(attribute.String(attrCommand, command)))
}

// ProcessFinished decrements the running nox process gauge.
func (m *Metrics) ProcessFinished(ctx context.Context, command string) {
	if m == nil || m.noxActiveProcesses == nil {
		return
	}
	m.noxActiveProcesses.Add(ctx, -1, metric.WithAttributes(attribute.String(attrCommand, command)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}
