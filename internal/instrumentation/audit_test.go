package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToolList = "nox_list_sessions"
	testToolRun  = "nox_run_session"
	testTraceID  = "abc123def456"
)

func attrsByKey(attrs []slog.Attr) map[string]slog.Value {
	out := make(map[string]slog.Value, len(attrs))
	for _, a := range attrs {
		out[a.Key] = a.Value
	}
	return out
}

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation(testToolList)

	assert.Equal(t, testToolList, ti.Tool)
	assert.False(t, ti.StartTime.IsZero())

	ti.CompleteSuccess()

	assert.True(t, ti.Success)
	assert.GreaterOrEqual(t, ti.Duration.Nanoseconds(), int64(0))
	assert.Empty(t, ti.Error)
	assert.Equal(t, StatusSuccess, ti.Status())
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation(testToolRun).CompleteWithError(errors.New("nox run timed out"))

	assert.False(t, ti.Success)
	assert.Equal(t, "nox run timed out", ti.Error)
	assert.Equal(t, StatusError, ti.Status())
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation(testToolRun).
		WithCommand(CommandRun).
		WithSelection([]string{"lint", "tests"}, []string{"ci"}, "not slow", "3.12").
		WithExitCode(1).
		CompleteSuccess()
	ti.TraceID = testTraceID

	t.Run("without arguments", func(t *testing.T) {
		got := attrsByKey(ti.LogAttrs(false))

		assert.Equal(t, testToolRun, got["tool"].String())
		assert.Equal(t, CommandRun, got["command"].String())
		assert.Equal(t, int64(1), got["exit_code"].Int64())
		assert.Equal(t, testTraceID, got["trace_id"].String())
		assert.True(t, got["success"].Bool())
		assert.NotContains(t, got, "sessions")
		assert.NotContains(t, got, "keywords")
		assert.NotContains(t, got, "error")
	})

	t.Run("with arguments", func(t *testing.T) {
		got := attrsByKey(ti.LogAttrs(true))

		assert.Equal(t, "lint,tests", got["sessions"].String())
		assert.Equal(t, "ci", got["tags"].String())
		assert.Equal(t, "not slow", got["keywords"].String())
		assert.Equal(t, "3.12", got["python"].String())
	})
}

func TestToolInvocation_LogAttrs_MinimalFields(t *testing.T) {
	ti := NewToolInvocation(testToolList).CompleteWithError(errors.New("boom"))

	got := attrsByKey(ti.LogAttrs(true))

	assert.Len(t, got, 4)
	assert.Equal(t, "boom", got["error"].String())
	assert.NotContains(t, got, "exit_code")
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation(testToolList).WithSpanContext(context.Background())

	assert.Empty(t, ti.TraceID)
	assert.Empty(t, ti.SpanID)
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogToolInvocation(NewToolInvocation(testToolList).WithCommand(CommandList).CompleteSuccess())
	al.LogToolInvocation(NewToolInvocation(testToolRun).CompleteWithError(errors.New("Invalid tag: a b")))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))

	assert.Equal(t, "tool_executed", first["msg"])
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "list", first["command"])

	assert.Equal(t, "tool_failed", second["msg"])
	assert.Equal(t, "WARN", second["level"])
	assert.Equal(t, "Invalid tag: a b", second["error"])
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(slog.New(slog.NewTextHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})

	al.LogToolInvocation(NewToolInvocation(testToolList).CompleteSuccess())
	assert.Empty(t, buf.String())

	al.SetEnabled(true)
	al.LogToolInvocation(NewToolInvocation(testToolList).CompleteSuccess())
	assert.Contains(t, buf.String(), "tool_executed")
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var al *AuditLogger
	al.LogToolInvocation(NewToolInvocation(testToolList).CompleteSuccess())

	assert.NotNil(t, NewAuditLogger(nil).logger)
}
