package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for nox-mcp.
const TracerName = "github.com/teemow/nox-mcp"

// Span attribute keys.
const (
	// SpanAttrTool is the MCP tool name attribute.
	SpanAttrTool = "mcp.tool"

	// SpanAttrStatus is the operation status attribute.
	SpanAttrStatus = "mcp.status"

	// SpanAttrCommand is the nox command kind (list, run).
	SpanAttrCommand = "nox.command"

	// SpanAttrExecutable is the resolved nox executable path.
	SpanAttrExecutable = "nox.executable"

	// SpanAttrSessionCount is the number of sessions selected with -s.
	SpanAttrSessionCount = "nox.session_count"

	// SpanAttrTagCount is the number of tags selected with -t.
	SpanAttrTagCount = "nox.tag_count"

	// SpanAttrExitCode is the process exit code.
	SpanAttrExitCode = "process.exit_code"

	// SpanAttrTimeoutSeconds is the timeout applied to the process.
	SpanAttrTimeoutSeconds = "nox.timeout_seconds"
)

// SpanAttributeBuilder helps construct span attributes with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{attrs: make([]attribute.KeyValue, 0, 8)}
}

// WithTool adds the MCP tool name attribute.
func (b *SpanAttributeBuilder) WithTool(tool string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrTool, tool))
	return b
}

// WithExecutable adds the resolved executable path, if known.
func (b *SpanAttributeBuilder) WithExecutable(path string) *SpanAttributeBuilder {
	if path != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrExecutable, path))
	}
	return b
}

// WithSelection adds the number of requested sessions and tags.
func (b *SpanAttributeBuilder) WithSelection(sessions, tags int) *SpanAttributeBuilder {
	b.attrs = append(b.attrs,
		attribute.Int(SpanAttrSessionCount, sessions),
		attribute.Int(SpanAttrTagCount, tags),
	)
	return b
}

// WithTimeoutSeconds adds the timeout applied to the process.
func (b *SpanAttributeBuilder) WithTimeoutSeconds(seconds float64) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Float64(SpanAttrTimeoutSeconds, seconds))
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a server span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartCommandSpan starts a client span around one nox child process.
// The span is named nox.<command>, for example nox.list.
func StartCommandSpan(ctx context.Context, command string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{attribute.String(SpanAttrCommand, command)}, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "nox."+command,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// SetSpanExitCode records the process exit code. A non-zero exit from nox
// run is a normal result, so this never marks the span as failed.
func SetSpanExitCode(span trace.Span, code int) {
	span.SetAttributes(attribute.Int(SpanAttrExitCode, code))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}
