package nox_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/nox-mcp/internal/instrumentation"
	"github.com/teemow/nox-mcp/internal/logging"
	"github.com/teemow/nox-mcp/internal/nox"
	"github.com/teemow/nox-mcp/internal/server"
	"github.com/teemow/nox-mcp/internal/tools/common"
)

// Tool names.
const (
	ListSessionsToolName = "nox_list_sessions"
	RunSessionToolName   = "nox_run_session"
)

// RegisterNoxTools registers the nox tools with the MCP server.
func RegisterNoxTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil || sc.NoxClient() == nil {
		return fmt.Errorf("nox client is not configured")
	}

	s.AddTool(newListSessionsTool(sc.NoxClient()), common.InstrumentedToolHandler(
		ListSessionsToolName, instrumentation.CommandList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListSessions(ctx, request, sc)
		}))

	s.AddTool(newRunSessionTool(sc.NoxClient()), common.InstrumentedToolHandler(
		RunSessionToolName, instrumentation.CommandRun, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRunSession(ctx, request, sc)
		}))

	return nil
}

// errorResult logs err in full and returns only the user-facing message.
func errorResult(ctx context.Context, sc *server.ServerContext, tool string, err error) *mcp.CallToolResult {
	sc.Logger().WarnContext(ctx, "nox tool failed",
		logging.Tool(tool),
		logging.Err(err))
	return mcp.NewToolResultError(nox.UserMessage(err))
}

// argumentError reports a malformed tool argument.
func argumentError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err))
}

// structuredResult returns structured content with the JSON encoding of text
// as the fallback for clients without structured output support.
func structuredResult(structured, text any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(text, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format response: %v", err)), nil
	}
	return mcp.NewToolResultStructured(structured, string(b)), nil
}
