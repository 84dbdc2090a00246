package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joescharf/ghview/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

Configure it in an MCP client with:

  {
    "mcpServers": {
      "ghview": { "command": "ghview", "args": ["mcp"] }
    }
  }

Available tools: github_profile`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol; logs go to stderr.
		srv := mcp.NewServer(newGitHubClient(), newLogger(slog.LevelInfo), buildVersion)
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
