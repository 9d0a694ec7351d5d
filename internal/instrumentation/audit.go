package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures one MCP tool call for audit logging.
type ToolInvocation struct {
	Tool string

	// Command is the nox command kind the tool ran (list, run).
	Command string

	// Selection arguments, only logged when the audit logger includes arguments.
	Sessions []string
	Tags     []string
	Keywords string
	Python   string

	// ExitCode is set once nox has run to completion.
	ExitCode *int

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithCommand sets the nox command kind.
func (ti *ToolInvocation) WithCommand(command string) *ToolInvocation {
	ti.Command = command
	return ti
}

// WithSelection records the caller's session selection arguments.
func (ti *ToolInvocation) WithSelection(sessions, tags []string, keywords, python string) *ToolInvocation {
	ti.Sessions = sessions
	ti.Tags = tags
	ti.Keywords = keywords
	ti.Python = python
	return ti
}

// WithExitCode records the exit code nox returned.
func (ti *ToolInvocation) WithExitCode(code int) *ToolInvocation {
	ti.ExitCode = &code
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the slog attributes for this invocation. Caller-supplied
// selection arguments are only included when includeArguments is set.
func (ti *ToolInvocation) LogAttrs(includeArguments bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.Command != "" {
		attrs = append(attrs, slog.String("command", ti.Command))
	}
	if ti.ExitCode != nil {
		attrs = append(attrs, slog.Int("exit_code", *ti.ExitCode))
	}
	if includeArguments {
		if len(ti.Sessions) > 0 {
			attrs = append(attrs, slog.String("sessions", strings.Join(ti.Sessions, ",")))
		}
		if len(ti.Tags) > 0 {
			attrs = append(attrs, slog.String("tags", strings.Join(ti.Tags, ",")))
		}
		if ti.Keywords != "" {
			attrs = append(attrs, slog.String("keywords", ti.Keywords))
		}
		if ti.Python != "" {
			attrs = append(attrs, slog.String("python", ti.Python))
		}
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// AuditLogger writes one structured entry per tool invocation.
type AuditLogger struct {
	logger           *slog.Logger
	includeArguments bool
	enabled          bool
}

// NewAuditLogger creates an enabled AuditLogger that omits selection arguments.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:           logger,
		includeArguments: config.IncludeArguments,
		enabled:          config.Enabled,
	}
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogToolInvocation logs a finished tool invocation. Successful calls are
// logged at Info, failed ones at Warn.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includeArguments)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
