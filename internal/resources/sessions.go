package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/nox-mcp/internal/logging"
	"github.com/teemow/nox-mcp/internal/nox"
	"github.com/teemow/nox-mcp/internal/server"
)

// SessionsURI is the URI of the session listing resource.
const SessionsURI = "nox://sessions"

// RegisterSessionResources registers the read-only nox session listing.
func RegisterSessionResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil || sc.NoxClient() == nil {
		return fmt.Errorf("nox client is not configured")
	}

	sessionsResource := mcp.NewResource(
		SessionsURI,
		"nox sessions",
		mcp.WithResourceDescription("Sessions defined by the project's noxfile, as reported by 'nox --list --json'"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(sessionsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSessions(ctx, request, sc)
	})

	return nil
}

// handleSessions returns the current session listing using the client's
// default list timeout.
func handleSessions(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	sessions, err := sc.NoxClient().ListSessions(ctx, 0)
	if err != nil {
		sc.Logger().WarnContext(ctx, "failed to read sessions resource",
			logging.Operation("resource.sessions"),
			logging.Err(err))
		return nil, errors.New(nox.UserMessage(err))
	}

	jsonData, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sessions: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
