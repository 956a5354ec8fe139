package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/nfl-playoff-engine/internal/config"
	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/runner"
	"github.com/sam-maryland/nfl-playoff-engine/internal/standings"
	"github.com/sam-maryland/nfl-playoff-engine/internal/tournament"
)

// RecordResultArgs represents the parameters for the record_result tool
type RecordResultArgs struct {
	TournamentID string `json:"tournament_id"`
	Round        string `json:"round"`
	MatchupID    string `json:"matchup_id"`
	WinnerTeamID string `json:"winner_team_id"`
	HomeScore    *int   `json:"home_score,omitempty"`
	AwayScore    *int   `json:"away_score,omitempty"`
}

// SeedingResult is the data returned by compute_seeding
type SeedingResult struct {
	Season        string                      `json:"season,omitempty"`
	TiebreakOrder []string                    `json:"tiebreak_order"`
	Conferences   []playoff.ConferenceSeeding `json:"conferences"`
}

// StartResult is the data returned by start_tournament
type StartResult struct {
	Tournament tournament.Summary          `json:"tournament"`
	Seedings   []playoff.ConferenceSeeding `json:"seedings"`
	WildCard   playoff.Bracket             `json:"wild_card"`
}

// AdvanceResult is the data returned by advance_round
type AdvanceResult struct {
	Ready      bool               `json:"ready"`
	From       playoff.Round      `json:"from_round"`
	To         playoff.Round      `json:"to_round"`
	Bracket    *playoff.Bracket   `json:"bracket,omitempty"`
	Champion   playoff.TeamID     `json:"champion_team_id,omitempty"`
	Pending    []playoff.Matchup  `json:"pending_matchups,omitempty"`
	Tournament tournament.Summary `json:"tournament"`
}

// TournamentHandler handles the playoff MCP tools
type TournamentHandler struct {
	registry *Registry
	source   standings.Source
	config   *config.EngineConfig
	logger   *logrus.Logger
}

// NewTournamentHandler creates a new tournament handler. source may be nil, in which case
// callers must pass a standings snapshot.
func NewTournamentHandler(registry *Registry, source standings.Source, cfg *config.EngineConfig, logger *logrus.Logger) *TournamentHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &TournamentHandler{
		registry: registry,
		source:   source,
		config:   cfg,
		logger:   logger,
	}
}

// Tools returns every tool definition served by the handler
func (h *TournamentHandler) Tools() []mcp.Tool {
	return []mcp.Tool{
		h.ComputeSeedingTool(),
		h.StartTournamentTool(),
		h.GetBracketTool(),
		h.GetPendingMatchupsTool(),
		h.RecordResultTool(),
		h.AdvanceRoundTool(),
		h.GetTournamentSummaryTool(),
		h.SimulateTournamentTool(),
		h.ListTournamentsTool(),
	}
}

var (
	tournamentIDProperty = map[string]interface{}{
		"type":        "string",
		"description": "The tournament ID returned by start_tournament",
		"required":    true,
	}
	snapshotProperty = map[string]interface{}{
		"type":        "object",
		"description": "Regular season standings: {season, teams: [{team_id, wins, losses, ties, points_for, points_against, division, conference, division_record, conference_record}], head_to_head: {team: {opponent: wins}}}. Omit to use the configured standings source.",
	}
	leagueProperty = map[string]interface{}{
		"type":        "string",
		"description": "League whose configured tiebreak order applies. Omit for the default order.",
	}
)

// ComputeSeedingTool returns the MCP tool definition for compute_seeding
func (h *TournamentHandler) ComputeSeedingTool() mcp.Tool {
	return mcp.Tool{
		Name:        "compute_seeding",
		Description: "Rank each conference's regular season records into seven playoff seeds: four division winners by record, then three wild cards",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"snapshot":  snapshotProperty,
				"league_id": leagueProperty,
			},
		},
	}
}

// HandleComputeSeeding handles the compute_seeding tool call
func (h *TournamentHandler) HandleComputeSeeding(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling compute_seeding")

	snapshot, seedings, order, err := h.seed(ctx, args)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute seeding")
		return errorResult("", "Failed to compute seeding", err), nil
	}

	result := SeedingResult{
		Season:        snapshot.Season,
		TiebreakOrder: order,
		Conferences:   seedings,
	}
	return jsonResult("", describeSeedings(seedings), result)
}

// StartTournamentTool returns the MCP tool definition for start_tournament
func (h *TournamentHandler) StartTournamentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "start_tournament",
		Description: "Seed both conferences from regular season standings and start a playoff tournament at the wild card round",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"snapshot":  snapshotProperty,
				"league_id": leagueProperty,
			},
		},
	}
}

// HandleStartTournament handles the start_tournament tool call
func (h *TournamentHandler) HandleStartTournament(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling start_tournament")

	snapshot, seedings, _, err := h.seed(ctx, args)
	if err != nil {
		h.logger.WithError(err).Error("Failed to seed tournament")
		return errorResult("", "Failed to seed tournament", err), nil
	}

	summary, err := h.registry.Create(ctx, seedings, snapshot.Season)
	if err != nil {
		h.logger.WithError(err).Error("Failed to start tournament")
		return errorResult("", "Failed to start tournament", err), nil
	}

	result := StartResult{Tournament: summary, Seedings: seedings}
	err = h.registry.With(ctx, summary.ID, func(t *tournament.Tournament) error {
		result.WildCard = t.ActiveBracket()
		return nil
	})
	if err != nil {
		return errorResult(summary.ID, "Failed to load tournament", err), nil
	}

	return jsonResult(summary.ID,
		fmt.Sprintf("Started tournament %s with %d wild card games", summary.ID, len(result.WildCard.Matchups)),
		result)
}

// GetBracketTool returns the MCP tool definition for get_bracket
func (h *TournamentHandler) GetBracketTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_bracket",
		Description: "Get the matchups of a tournament round with seeds, home teams, and recorded winners",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tournament_id": tournamentIDProperty,
				"round": map[string]interface{}{
					"type":        "string",
					"description": "Round to return. Omit for the active round, or 'all' for every round built so far",
					"enum":        []string{"wild_card", "divisional", "conference", "super_bowl", "all"},
				},
			},
		},
	}
}

// HandleGetBracket handles the get_bracket tool call
func (h *TournamentHandler) HandleGetBracket(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_bracket")

	id, err := requiredString(args, "tournament_id")
	if err != nil {
		return nil, err
	}
	roundName, _ := args["round"].(string)

	var data interface{}
	var summary string
	err = h.registry.With(ctx, id, func(t *tournament.Tournament) error {
		switch roundName {
		case "":
			b := t.ActiveBracket()
			data, summary = b, describeBracket(b)
		case "all":
			brackets := t.Brackets()
			data, summary = brackets, fmt.Sprintf("%d rounds built, current round %s", len(brackets), t.Round())
		default:
			round, err := playoff.ParseRound(roundName)
			if err != nil {
				return err
			}
			b, ok := t.Bracket(round)
			if !ok {
				return fmt.Errorf("round %s has not been built yet, current round is %s", round, t.Round())
			}
			data, summary = b, describeBracket(b)
		}
		return nil
	})
	if err != nil {
		return errorResult(id, "Failed to get bracket", err), nil
	}
	return jsonResult(id, summary, data)
}

// GetPendingMatchupsTool returns the MCP tool definition for get_pending_matchups
func (h *TournamentHandler) GetPendingMatchupsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_pending_matchups",
		Description: "List the matchups of the active round that still need a result",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tournament_id": tournamentIDProperty,
			},
		},
	}
}

// HandleGetPendingMatchups handles the get_pending_matchups tool call
func (h *TournamentHandler) HandleGetPendingMatchups(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_pending_matchups")

	id, err := requiredString(args, "tournament_id")
	if err != nil {
		return nil, err
	}

	var pending []playoff.Matchup
	var round playoff.Round
	err = h.registry.With(ctx, id, func(t *tournament.Tournament) error {
		pending = t.PendingMatchups()
		round = t.Round()
		return nil
	})
	if err != nil {
		return errorResult(id, "Failed to get pending matchups", err), nil
	}
	if pending == nil {
		pending = []playoff.Matchup{}
	}
	return jsonResult(id, fmt.Sprintf("%d pending matchups in round %s", len(pending), round), pending)
}

// RecordResultTool returns the MCP tool definition for record_result
func (h *TournamentHandler) RecordResultTool() mcp.Tool {
	return mcp.Tool{
		Name:        "record_result",
		Description: "Record the winner of a pending matchup in the active round. Scores are optional and informational",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tournament_id": tournamentIDProperty,
				"round": map[string]interface{}{
					"type":        "string",
					"description": "Round of the matchup",
					"enum":        []string{"wild_card", "divisional", "conference", "super_bowl"},
					"required":    true,
				},
				"matchup_id": map[string]interface{}{
					"type":        "string",
					"description": "Matchup ID such as AFC-WC-1 or SB-1",
					"required":    true,
				},
				"winner_team_id": map[string]interface{}{
					"type":        "string",
					"description": "Team ID of the winner; must be one of the two teams in the matchup",
					"required":    true,
				},
				"home_score": map[string]interface{}{
					"type":        "integer",
					"description": "Final score of the home slot team",
				},
				"away_score": map[string]interface{}{
					"type":        "integer",
					"description": "Final score of the away slot team",
				},
			},
		},
	}
}

// HandleRecordResult handles the record_result tool call
func (h *TournamentHandler) HandleRecordResult(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling record_result")

	req, err := parseRecordResultArgs(args)
	if err != nil {
		return nil, err
	}
	round, err := playoff.ParseRound(req.Round)
	if err != nil {
		return nil, err
	}

	var score *playoff.Score
	if req.HomeScore != nil || req.AwayScore != nil {
		if req.HomeScore == nil || req.AwayScore == nil {
			return nil, fmt.Errorf("home_score and away_score must be given together")
		}
		score = &playoff.Score{Home: *req.HomeScore, Away: *req.AwayScore}
	}

	var matchup playoff.Matchup
	var summary tournament.Summary
	err = h.registry.With(ctx, req.TournamentID, func(t *tournament.Tournament) error {
		if err := t.RecordResult(round, req.MatchupID, playoff.TeamID(req.WinnerTeamID), score); err != nil {
			return err
		}
		b, _ := t.Bracket(round)
		if i, ok := b.Find(req.MatchupID); ok {
			matchup = b.Matchups[i]
		}
		summary = t.Summary()
		return nil
	})
	if err != nil {
		tournament.LogError(h.logger, req.TournamentID, err)
		return errorResult(req.TournamentID, "Result not recorded", err), nil
	}

	return jsonResult(req.TournamentID,
		fmt.Sprintf("%s won %s (%d games played)", matchup.Winner, matchup.ID, summary.TotalGamesPlayed),
		matchup)
}

func parseRecordResultArgs(args map[string]interface{}) (RecordResultArgs, error) {
	var req RecordResultArgs
	var err error
	if req.TournamentID, err = requiredString(args, "tournament_id"); err != nil {
		return req, err
	}
	if req.Round, err = requiredString(args, "round"); err != nil {
		return req, err
	}
	if req.MatchupID, err = requiredString(args, "matchup_id"); err != nil {
		return req, err
	}
	if req.WinnerTeamID, err = requiredString(args, "winner_team_id"); err != nil {
		return req, err
	}

	for name, dst := range map[string]**int{"home_score": &req.HomeScore, "away_score": &req.AwayScore} {
		v, ok, err := optionalInt(args, name)
		if err != nil {
			return req, err
		}
		if ok {
			v := v
			*dst = &v
		}
	}
	return req, nil
}

// AdvanceRoundTool returns the MCP tool definition for advance_round
func (h *TournamentHandler) AdvanceRoundTool() mcp.Tool {
	return mcp.Tool{
		Name:        "advance_round",
		Description: "Build the next round once every matchup of the active round has a winner. Reports not ready otherwise",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tournament_id": tournamentIDProperty,
			},
		},
	}
}

// HandleAdvanceRound handles the advance_round tool call
func (h *TournamentHandler) HandleAdvanceRound(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling advance_round")

	id, err := requiredString(args, "tournament_id")
	if err != nil {
		return nil, err
	}

	var result AdvanceResult
	err = h.registry.With(ctx, id, func(t *tournament.Tournament) error {
		adv, err := t.TryAdvance()
		if err != nil {
			return err
		}
		result = AdvanceResult{
			Ready:      adv.Ready,
			From:       adv.From,
			To:         adv.To,
			Bracket:    adv.Bracket,
			Champion:   adv.Champion,
			Tournament: t.Summary(),
		}
		if !adv.Ready {
			result.Pending = t.PendingMatchups()
		}
		return nil
	})
	if err != nil {
		tournament.LogError(h.logger, id, err)
		return errorResult(id, "Failed to advance round", err), nil
	}

	var summary string
	switch {
	case result.Champion != "":
		summary = fmt.Sprintf("%s won the super bowl", result.Champion)
	case result.Ready:
		summary = fmt.Sprintf("Advanced from %s to %s", result.From, result.To)
	case result.Tournament.IsComplete:
		summary = "Tournament is already complete"
	default:
		summary = fmt.Sprintf("Round %s not ready: %d matchups pending", result.From, len(result.Pending))
	}
	return jsonResult(id, summary, result)
}

// GetTournamentSummaryTool returns the MCP tool definition for get_tournament_summary
func (h *TournamentHandler) GetTournamentSummaryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_tournament_summary",
		Description: "Get a tournament's current round, rounds completed, games played, and champion",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tournament_id": tournamentIDProperty,
			},
		},
	}
}

// HandleGetTournamentSummary handles the get_tournament_summary tool call
func (h *TournamentHandler) HandleGetTournamentSummary(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_tournament_summary")

	id, err := requiredString(args, "tournament_id")
	if err != nil {
		return nil, err
	}

	var summary tournament.Summary
	err = h.registry.With(ctx, id, func(t *tournament.Tournament) error {
		summary = t.Summary()
		return nil
	})
	if err != nil {
		return errorResult(id, "Failed to get tournament summary", err), nil
	}
	return jsonResult(id, describeSummary(summary), summary)
}

// SimulateTournamentTool returns the MCP tool definition for simulate_tournament
func (h *TournamentHandler) SimulateTournamentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "simulate_tournament",
		Description: "Play every remaining game of a tournament. Listed winners are used where given; otherwise the better seed wins",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tournament_id": tournamentIDProperty,
				"winners": map[string]interface{}{
					"type":        "object",
					"description": "Map of matchup ID to winning team ID, e.g. {\"AFC-WC-1\": \"PIT\"}",
				},
			},
		},
	}
}

// HandleSimulateTournament handles the simulate_tournament tool call
func (h *TournamentHandler) HandleSimulateTournament(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling simulate_tournament")

	id, err := requiredString(args, "tournament_id")
	if err != nil {
		return nil, err
	}
	var winners map[string]playoff.TeamID
	if _, err := decodeArg(args, "winners", &winners); err != nil {
		return nil, err
	}

	rn := runner.New(h.registry.store, runner.Scripted(winners), nil, h.logger, h.config.RunnerConfig())
	summary, err := h.registry.Drive(ctx, id, rn)
	if err != nil {
		return errorResult(id, "Simulation stopped", err), nil
	}
	return jsonResult(id, describeSummary(summary), summary)
}

// ListTournamentsTool returns the MCP tool definition for list_tournaments
func (h *TournamentHandler) ListTournamentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_tournaments",
		Description: "List stored tournament IDs, oldest first",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// HandleListTournaments handles the list_tournaments tool call
func (h *TournamentHandler) HandleListTournaments(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.Info("Handling list_tournaments")

	ids, err := h.registry.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tournaments")
		return errorResult("", "Failed to list tournaments", err), nil
	}
	if ids == nil {
		ids = []string{}
	}
	return jsonResult("", fmt.Sprintf("%d tournaments stored", len(ids)), ids)
}

// seed resolves the standings snapshot and computes both conference seedings
func (h *TournamentHandler) seed(ctx context.Context, args map[string]interface{}) (*playoff.Snapshot, []playoff.ConferenceSeeding, []string, error) {
	leagueID, _ := args["league_id"].(string)
	calculator, err := h.config.Calculator(leagueID)
	if err != nil {
		return nil, nil, nil, err
	}

	snapshot := &playoff.Snapshot{}
	found, err := decodeArg(args, "snapshot", snapshot)
	if err != nil {
		return nil, nil, nil, err
	}
	if !found {
		if h.source == nil {
			return nil, nil, nil, fmt.Errorf("snapshot is required when no standings source is configured")
		}
		if snapshot, err = h.source.Fetch(ctx); err != nil {
			return nil, nil, nil, err
		}
	}

	seedings, err := calculator.ComputeAll(snapshot)
	if err != nil {
		return nil, nil, nil, err
	}

	order := make([]string, 0, len(calculator.Order()))
	for _, t := range calculator.Order() {
		order = append(order, t.String())
	}
	return snapshot, seedings, order, nil
}

func describeSeedings(seedings []playoff.ConferenceSeeding) string {
	parts := make([]string, 0, len(seedings))
	for _, s := range seedings {
		parts = append(parts, fmt.Sprintf("%s top seed %s", s.Conference, s.TopSeed().TeamID))
	}
	sort.Strings(parts)
	return fmt.Sprintf("Seeded %d conferences: %v", len(seedings), parts)
}

func describeBracket(b playoff.Bracket) string {
	return fmt.Sprintf("%s: %d of %d matchups resolved", b.Round, b.ResolvedCount(), len(b.Matchups))
}

func describeSummary(s tournament.Summary) string {
	if s.IsComplete {
		return fmt.Sprintf("Tournament %s complete, champion %s after %d games", s.ID, s.Champion, s.TotalGamesPlayed)
	}
	return fmt.Sprintf("Tournament %s in round %s, %d rounds completed, %d games played",
		s.ID, s.CurrentRound, s.RoundsCompleted, s.TotalGamesPlayed)
}
