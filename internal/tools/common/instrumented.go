package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/nox-mcp/internal/instrumentation"
	"github.com/teemow/nox-mcp/internal/nox"
	"github.com/teemow/nox-mcp/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a tool span, metrics and
// audit logging. command is the nox command the tool drives
// (instrumentation.CommandList or CommandRun) and ends up in the audit record.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler("nox_run_session", instrumentation.CommandRun, sc, handler))
func InstrumentedToolHandler(toolName, command string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Get metrics and audit logger (may be nil if not configured)
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithCommand(command).
			WithSpanContext(ctx).
			WithSelection(selectionFromArgs(request.GetArguments()))

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			resultErr := errors.New(resultText(result))
			invocation.CompleteWithError(resultErr)
			instrumentation.SetSpanError(span, resultErr)
		default:
			if rr, ok := runResult(result); ok {
				invocation.WithExitCode(rr.ExitCode)
			}
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}

// selectionFromArgs extracts the session selection for the audit record.
// Malformed arguments are ignored here; the handler reports them.
func selectionFromArgs(args map[string]interface{}) (sessions, tags []string, keywords, python string) {
	sessions, _ = GetStringArrayArg(args, "sessions")
	tags, _ = GetStringArrayArg(args, "tags")
	keywords, _ = GetStringArg(args, "keywords")
	python, _ = GetStringArg(args, "python")
	return sessions, tags, keywords, python
}

// resultText returns the first text content of a result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			return tc.Text
		case *mcp.TextContent:
			return tc.Text
		}
	}
	return "tool returned an error"
}

func runResult(result *mcp.CallToolResult) (nox.RunResult, bool) {
	if result == nil {
		return nox.RunResult{}, false
	}
	switch rr := result.StructuredContent.(type) {
	case nox.RunResult:
		return rr, true
	case *nox.RunResult:
		if rr != nil {
			return *rr, true
		}
	}
	return nox.RunResult{}, false
}
