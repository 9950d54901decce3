package cmd

import (
	"fmt"

	"github.com/abramin/codegraph/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Start the MCP server over stdio",
	Long: `Serve the code graph to agents over the Model Context Protocol.

The server speaks MCP on stdin/stdout and exposes tools for search,
context building, call traversal, impact analysis, indexing, and
project memories. Point an MCP-capable client at this command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := server.New(server.Config{
			ProjectDir: projectPath(args),
			Settings:   GetConfig(),
		})
		if err != nil {
			return fmt.Errorf("starting server: %w", err)
		}
		return s.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
