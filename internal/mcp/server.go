// ABOUTME: MCP server setup for the swim workout store.
// ABOUTME: Wraps the MCP server with a storage Repository and a time committer.
package mcp

import (
	"context"

	"github.com/harperreed/swim/internal/session"
	"github.com/harperreed/swim/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	committer session.Committer
	log       *zap.Logger
}

// NewServer creates a new MCP server. Times recorded through the
// record_time tool go through committer, which may be a remote backend.
func NewServer(repo storage.Repository, committer session.Committer, log *zap.Logger) (*Server, error) {
	if committer == nil {
		committer = storage.NewCommitter(repo)
	}
	if log == nil {
		log = zap.NewNop()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "swim",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		committer: committer,
		log:       log,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
