package resources

import (
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/nox-mcp/internal/nox"
	"github.com/teemow/nox-mcp/internal/server"
)

type stubExecutor struct {
	outcome nox.Outcome
	timeout time.Duration
}

func (s *stubExecutor) Run(_ context.Context, cmd nox.Command) (nox.Outcome, error) {
	s.timeout = cmd.Timeout
	return s.outcome, nil
}

func newServerContext(t *testing.T, ex nox.Executor, lookPath func(string) (string, error)) *server.ServerContext {
	t.Helper()
	client := nox.NewClient(
		nox.WithLookPath(lookPath),
		nox.WithExecutor(ex),
		nox.WithDefaultTimeouts(12*time.Second, 0),
		nox.WithLogger(slog.New(slog.DiscardHandler)),
	)
	sc := server.NewServerContext(context.Background(), client)
	sc.SetLogger(slog.New(slog.DiscardHandler))
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func onPath(string) (string, error) { return "/usr/bin/nox", nil }

func readRequest() mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = SessionsURI
	return req
}

func TestRegisterSessionResources(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("test-server", "1.0.0",
		mcpserver.WithResourceCapabilities(false, false),
	)
	sc := newServerContext(t, &stubExecutor{}, onPath)

	require.NoError(t, RegisterSessionResources(mcpSrv, sc))
	assert.Error(t, RegisterSessionResources(mcpSrv, nil))
}

func TestHandleSessions(t *testing.T) {
	ex := &stubExecutor{outcome: nox.Outcome{Stdout: `[{"session":"tests","python":"3.12"}]`}}
	sc := newServerContext(t, ex, onPath)

	contents, err := handleSessions(context.Background(), readRequest(), sc)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, SessionsURI, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)

	var sessions []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &sessions))
	assert.Equal(t, []map[string]any{{"session": "tests", "python": "3.12"}}, sessions)
	assert.Equal(t, 12*time.Second, ex.timeout)
}

func TestHandleSessions_NotFound(t *testing.T) {
	missing := func(name string) (string, error) {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	sc := newServerContext(t, &stubExecutor{}, missing)

	_, err := handleSessions(context.Background(), readRequest(), sc)
	require.Error(t, err)
	assert.Equal(t, "'nox' executable not found in PATH.", err.Error())
}
