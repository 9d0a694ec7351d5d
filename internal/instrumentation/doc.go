// Package instrumentation wires OpenTelemetry metrics, tracing and audit
// logging into nox-mcp.
//
// Metrics (all names as exported to Prometheus):
//
//	mcp_tool_invocations_total{tool,status}
//	mcp_tool_duration_seconds{tool,status}
//	nox_commands_total{command,status[,exit_code]}
//	nox_command_duration_seconds{command,status[,exit_code]}
//	nox_active_processes{command}
//	http_requests_total{method,path,status}
//	http_request_duration_seconds{method,path,status}
//
// command is list or run. status is success, error or timeout; a run whose
// sessions fail still counts as success and carries its exit code. The
// exit_code label is only added with METRICS_DETAILED_LABELS=true and is
// bucketed by ExitCodeLabel.
//
// Spans: tool.<name> around each MCP tool call and nox.list / nox.run around
// each child process.
//
// The provider reads its settings from the environment, see DefaultConfig:
// INSTRUMENTATION_ENABLED, METRICS_EXPORTER (prometheus, otlp, stdout),
// TRACING_EXPORTER (otlp, stdout, none), OTEL_EXPORTER_OTLP_ENDPOINT,
// OTEL_TRACES_SAMPLER_ARG, OTEL_SERVICE_NAME, AUDIT_LOGGING_ENABLED and
// AUDIT_LOGGING_INCLUDE_ARGUMENTS. Stdout exporters write to stderr so they
// never mix with the stdio transport.
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//	provider.Metrics().RecordNoxCommand(ctx, instrumentation.CommandRun, instrumentation.StatusSuccess, 0, elapsed)
package instrumentation
