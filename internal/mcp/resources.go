// ABOUTME: MCP resource implementations for the swim workout library.
// ABOUTME: Provides swim://workouts, a JSON listing of every saved workout.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// swim://workouts - every workout with distance and notation
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "swim://workouts",
		Name:        "Swim Workouts",
		Description: "All saved workouts with total distance and notation",
		MIMEType:    "application/json",
	}, s.handleWorkoutsResource)
}

// Resource handlers

func (s *Server) handleWorkoutsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	workouts, err := s.repo.ListWorkouts(nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}

	summaries := make([]workoutSummary, 0, len(workouts))
	for _, w := range workouts {
		summaries = append(summaries, summarize(w))
	}

	jsonData, err := json.MarshalIndent(map[string]interface{}{
		"count":    len(summaries),
		"workouts": summaries,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workouts: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      "swim://workouts",
				MIMEType: "application/json",
				Text:     string(jsonData),
			},
		},
	}, nil
}
