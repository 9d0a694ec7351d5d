package nox_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/nox-mcp/internal/nox"
	"github.com/teemow/nox-mcp/internal/server"
	"github.com/teemow/nox-mcp/internal/tools/common"
)

func newRunSessionTool(client *nox.Client) mcp.Tool {
	return mcp.NewTool(RunSessionToolName,
		mcp.WithDescription("Run nox sessions and return the exit code, stdout and stderr. "+
			"Select sessions by name and/or tag; with no selection nox runs its default sessions. "+
			"A non-zero exit code means a session failed and is returned as a normal result."),
		mcp.WithTitleAnnotation("Run nox sessions"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithArray("sessions",
			mcp.Description("Session names to run (nox -s). Letters, digits, '_' and '-' only."),
			mcp.WithStringItems(),
		),
		mcp.WithArray("tags",
			mcp.Description("Session tags to run (nox -t). Letters, digits, '_' and '-' only."),
			mcp.WithStringItems(),
		),
		mcp.WithString("keywords",
			mcp.Description("Keyword expression selecting sessions (nox -k), e.g. 'tests and not slow'"),
		),
		mcp.WithString("python",
			mcp.Description("Only run sessions for this Python version (nox -p), e.g. '3.12'"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Timeout in seconds for the whole run"),
			mcp.DefaultNumber(client.RunTimeout().Seconds()),
		),
	)
}

// parseRunRequest reads the nox_run_session arguments. Session and tag
// contents are checked by the nox client, not here.
func parseRunRequest(args map[string]interface{}, defaultTimeout time.Duration) (nox.RunRequest, error) {
	var req nox.RunRequest
	var err error

	if req.Sessions, err = common.GetStringArrayArg(args, "sessions"); err != nil {
		return req, err
	}
	if req.Tags, err = common.GetStringArrayArg(args, "tags"); err != nil {
		return req, err
	}
	if req.Keywords, err = common.GetStringArg(args, "keywords"); err != nil {
		return req, err
	}
	if req.Python, err = common.GetStringArg(args, "python"); err != nil {
		return req, err
	}
	if req.Timeout, err = common.GetTimeoutArg(args, "timeout", defaultTimeout); err != nil {
		return req, err
	}
	return req, nil
}

// handleRunSession handles the nox_run_session tool
func handleRunSession(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client := sc.NoxClient()

	req, err := parseRunRequest(request.GetArguments(), client.RunTimeout())
	if err != nil {
		return argumentError(err), nil
	}

	result, err := client.RunSessions(ctx, req)
	if err != nil {
		return errorResult(ctx, sc, RunSessionToolName, err), nil
	}

	return structuredResult(*result, result)
}
