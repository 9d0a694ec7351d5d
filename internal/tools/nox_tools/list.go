package nox_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/nox-mcp/internal/nox"
	"github.com/teemow/nox-mcp/internal/server"
	"github.com/teemow/nox-mcp/internal/tools/common"
)

// ListSessionsResult is the structured content of nox_list_sessions.
type ListSessionsResult struct {
	Sessions []nox.Session `json:"sessions"`
}

func newListSessionsTool(client *nox.Client) mcp.Tool {
	return mcp.NewTool(ListSessionsToolName,
		mcp.WithDescription("List the nox sessions defined by the project's noxfile, "+
			"as reported by 'nox --list --json'. Each entry describes one session "+
			"(name, python version, description and whatever else nox reports)."),
		mcp.WithTitleAnnotation("List nox sessions"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("timeout",
			mcp.Description("Timeout in seconds for 'nox --list'"),
			mcp.DefaultNumber(client.ListTimeout().Seconds()),
		),
	)
}

// handleListSessions handles the nox_list_sessions tool
func handleListSessions(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client := sc.NoxClient()
	args := request.GetArguments()

	timeout, err := common.GetTimeoutArg(args, "timeout", client.ListTimeout())
	if err != nil {
		return argumentError(err), nil
	}

	sessions, err := client.ListSessions(ctx, timeout)
	if err != nil {
		return errorResult(ctx, sc, ListSessionsToolName, err), nil
	}

	return structuredResult(ListSessionsResult{Sessions: sessions}, sessions)
}
