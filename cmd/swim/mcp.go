// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for AI assistant integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/swim/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

MCP lets AI assistants build workouts, read them back, and record times
through a standardized protocol. The server communicates via stdin/stdout.

CONFIGURATION:

  {
    "mcpServers": {
      "swim": {
        "command": "swim",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  list_workouts     List workouts with distance and notation
  get_workout       Get a workout's notation and unrolled steps
  add_workout       Create a workout from YAML or JSON
  format_time_code  Format typed digits as mm:ss:cc
  start_session     Start a timing session
  record_time       Record a swimmer's time for a step
  list_times        List a session's times

AVAILABLE RESOURCES:

  swim://workouts   All workouts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(repo, cfg.Committer(repo, logger), logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
