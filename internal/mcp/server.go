package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/nfl-playoff-engine/internal/handlers"
)

type toolHandler func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error)

// NewPlayoffMCPServer registers the playoff tools on a new MCP server
func NewPlayoffMCPServer(tournamentHandler *handlers.TournamentHandler, logger *logrus.Logger) *server.DefaultServer {
	// Create MCP server
	s := server.NewDefaultServer("NFL Playoff Engine", "1.0.0")

	if s == nil {
		logger.Error("Failed to create MCP server instance")
		return nil
	}

	logger.Info("MCP server instance created successfully")

	routes := map[string]toolHandler{
		"compute_seeding":        tournamentHandler.HandleComputeSeeding,
		"start_tournament":       tournamentHandler.HandleStartTournament,
		"get_bracket":            tournamentHandler.HandleGetBracket,
		"get_pending_matchups":   tournamentHandler.HandleGetPendingMatchups,
		"record_result":          tournamentHandler.HandleRecordResult,
		"advance_round":          tournamentHandler.HandleAdvanceRound,
		"get_tournament_summary": tournamentHandler.HandleGetTournamentSummary,
		"simulate_tournament":    tournamentHandler.HandleSimulateTournament,
		"list_tournaments":       tournamentHandler.HandleListTournaments,
	}

	// Set up list tools handler
	s.HandleListTools(func(ctx context.Context, cursor *string) (*mcp.ListToolsResult, error) {
		tools := tournamentHandler.Tools()

		logger.WithField("tools_count", len(tools)).Info("Listing available tools")

		return &mcp.ListToolsResult{
			Tools: tools,
		}, nil
	})

	// Set up call tool handler
	s.HandleCallTool(func(ctx context.Context, name string, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		logger.WithFields(logrus.Fields{
			"tool": name,
			"args": arguments,
		}).Info("Tool called")

		handle, ok := routes[name]
		if !ok {
			logger.WithField("tool", name).Warn("Unknown tool called")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					&mcp.TextContent{
						Type: "text",
						Text: "Unknown tool: " + name,
					},
				},
				IsError: true,
			}, nil
		}
		return handle(ctx, arguments)
	})

	logger.WithField("tools_count", len(routes)).Info("All tools registered successfully")
	return s
}
