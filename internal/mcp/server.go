package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/ghview/internal/github"
	"github.com/joescharf/ghview/internal/profile"
)

// Server exposes profile lookups as MCP tools.
type Server struct {
	client  github.Client
	logger  *slog.Logger
	version string
}

// NewServer creates the MCP server wrapper. A nil logger uses slog.Default().
func NewServer(client github.Client, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{client: client, logger: logger, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("ghview", s.version, server.WithToolCapabilities(true))
	srv.AddTool(s.profileTool())
	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// github_profile
func (s *Server) profileTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("github_profile",
		mcp.WithDescription("Look up a GitHub account. Returns JSON with the profile (login, name, bio, avatar_url, followers, following, html_url) and the first page of its public repositories (id, name, html_url, description)."),
		mcp.WithString("username", mcp.Required(), mcp.Description("GitHub account name")),
	)
	return tool, s.handleProfile
}

func (s *Server) handleProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username, err := request.RequireString("username")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: username"), nil
	}

	c := profile.NewController(s.client, s.logger)
	st, err := c.Submit(ctx, username)
	if err != nil && !errors.Is(err, profile.ErrFetch) {
		if msg := profile.Message(err); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}

	data, merr := json.Marshal(st)
	if merr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", merr)), nil
	}

	result := mcp.NewToolResultText(string(data))
	// The profile is still returned when only the repository listing failed.
	result.IsError = err != nil
	return result, nil
}
