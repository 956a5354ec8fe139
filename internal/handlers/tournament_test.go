package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sam-maryland/nfl-playoff-engine/internal/config"
	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff/playofftest"
	"github.com/sam-maryland/nfl-playoff-engine/internal/standings"
	"github.com/sam-maryland/nfl-playoff-engine/internal/store"
	"github.com/sam-maryland/nfl-playoff-engine/internal/tournament"
)

// MockSource is a mock implementation of the standings.Source interface for testing
type MockSource struct {
	FetchFunc func(ctx context.Context) (*playoff.Snapshot, error)
}

func (m *MockSource) Fetch(ctx context.Context) (*playoff.Snapshot, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

// toolResponse mirrors Response with the data left raw
type toolResponse struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Summary  string          `json:"summary"`
	Error    *ErrorDetail    `json:"error"`
	Metadata Metadata        `json:"metadata"`
}

func newTestHandler(t *testing.T, source standings.Source) (*TournamentHandler, store.Store) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	st := store.NewMemoryStore()
	return NewTournamentHandler(NewRegistry(st, logger), source, config.Default(), logger), st
}

func snapshotArg(t *testing.T, snapshot *playoff.Snapshot) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("failed to marshal snapshot: %v", err)
	}
	var arg map[string]interface{}
	if err := json.Unmarshal(data, &arg); err != nil {
		t.Fatalf("failed to unmarshal snapshot: %v", err)
	}
	return arg
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, data interface{}) toolResponse {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result but got nil")
	}
	if len(result.Content) != 1 {
		t.Fatalf("Expected one content item, got %d", len(result.Content))
	}
	textContent, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}

	var resp toolResponse
	if err := json.Unmarshal([]byte(textContent.Text), &resp); err != nil {
		t.Fatalf("Response is not JSON: %v\n%s", err, textContent.Text)
	}
	if resp.Success == result.IsError {
		t.Errorf("success=%v disagrees with IsError=%v", resp.Success, result.IsError)
	}
	if data != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, data); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
	return resp
}

func startTournament(t *testing.T, h *TournamentHandler) StartResult {
	t.Helper()
	result, err := h.HandleStartTournament(context.Background(), map[string]interface{}{
		"snapshot": snapshotArg(t, playofftest.Snapshot()),
	})
	if err != nil {
		t.Fatalf("start_tournament failed: %v", err)
	}
	var started StartResult
	resp := decodeResult(t, result, &started)
	if !resp.Success {
		t.Fatalf("start_tournament returned error: %+v", resp.Error)
	}
	return started
}

func pendingMatchups(t *testing.T, h *TournamentHandler, id string) []playoff.Matchup {
	t.Helper()
	result, err := h.HandleGetPendingMatchups(context.Background(), map[string]interface{}{"tournament_id": id})
	if err != nil {
		t.Fatalf("get_pending_matchups failed: %v", err)
	}
	var pending []playoff.Matchup
	decodeResult(t, result, &pending)
	return pending
}

func recordResult(t *testing.T, h *TournamentHandler, id string, m playoff.Matchup, winner playoff.TeamID) *mcp.CallToolResult {
	t.Helper()
	result, err := h.HandleRecordResult(context.Background(), map[string]interface{}{
		"tournament_id":  id,
		"round":          m.Round.String(),
		"matchup_id":     m.ID,
		"winner_team_id": string(winner),
	})
	if err != nil {
		t.Fatalf("record_result failed: %v", err)
	}
	return result
}

func TestTournamentHandler_Tools(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	seen := make(map[string]bool)
	for _, tool := range h.Tools() {
		if seen[tool.Name] {
			t.Errorf("Duplicate tool name '%s'", tool.Name)
		}
		seen[tool.Name] = true

		if tool.Description == "" {
			t.Errorf("Expected description for tool '%s'", tool.Name)
		}
		if tool.InputSchema.Type != "object" {
			t.Errorf("Expected input schema type 'object' for '%s', got '%s'", tool.Name, tool.InputSchema.Type)
		}
	}

	for _, name := range []string{
		"compute_seeding", "start_tournament", "get_bracket", "get_pending_matchups",
		"record_result", "advance_round", "get_tournament_summary",
	} {
		if !seen[name] {
			t.Errorf("Expected tool '%s' to be registered", name)
		}
	}

	prop, ok := h.RecordResultTool().InputSchema.Properties["winner_team_id"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected winner_team_id property to be a map")
	}
	if prop["type"] != "string" {
		t.Errorf("Expected winner_team_id type to be 'string', got '%v'", prop["type"])
	}
}

func TestTournamentHandler_HandleComputeSeeding(t *testing.T) {
	tests := []struct {
		name       string
		args       func(t *testing.T) map[string]interface{}
		source     standings.Source
		wantError  bool
		wantKind   string
		wantTopAFC playoff.TeamID
	}{
		{
			name: "snapshot argument",
			args: func(t *testing.T) map[string]interface{} {
				return map[string]interface{}{"snapshot": snapshotArg(t, playofftest.Snapshot())}
			},
			wantTopAFC: "KC",
		},
		{
			name: "configured source",
			args: func(t *testing.T) map[string]interface{} { return map[string]interface{}{} },
			source: &MockSource{FetchFunc: func(context.Context) (*playoff.Snapshot, error) {
				return playofftest.Snapshot(), nil
			}},
			wantTopAFC: "KC",
		},
		{
			name:      "no snapshot and no source",
			args:      func(t *testing.T) map[string]interface{} { return map[string]interface{}{} },
			wantError: true,
		},
		{
			name: "source error",
			args: func(t *testing.T) map[string]interface{} { return map[string]interface{}{} },
			source: &MockSource{FetchFunc: func(context.Context) (*playoff.Snapshot, error) {
				return nil, &standings.SourceError{Type: "api_error", Message: "down", StatusCode: 503}
			}},
			wantError: true,
			wantKind:  "api_error",
		},
		{
			name: "conference short a team",
			args: func(t *testing.T) map[string]interface{} {
				snapshot := playofftest.Snapshot()
				snapshot.Teams = snapshot.Teams[1:]
				return map[string]interface{}{"snapshot": snapshotArg(t, snapshot)}
			},
			wantError: true,
			wantKind:  "invalid_seeding_input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, tt.source)

			result, err := h.HandleComputeSeeding(context.Background(), tt.args(t))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			var seeded SeedingResult
			resp := decodeResult(t, result, &seeded)
			if tt.wantError {
				if !result.IsError {
					t.Fatal("Expected error result")
				}
				if tt.wantKind != "" && resp.Error.Kind != tt.wantKind {
					t.Errorf("Expected kind '%s', got '%s'", tt.wantKind, resp.Error.Kind)
				}
				return
			}

			if result.IsError {
				t.Fatalf("Unexpected error result: %+v", resp.Error)
			}
			if len(seeded.Conferences) != 2 {
				t.Fatalf("Expected 2 conferences, got %d", len(seeded.Conferences))
			}
			if got := seeded.Conferences[0].Seeds[0].TeamID; got != tt.wantTopAFC {
				t.Errorf("Expected AFC top seed %s, got %s", tt.wantTopAFC, got)
			}
			if last := seeded.TiebreakOrder[len(seeded.TiebreakOrder)-1]; last != "team_id" {
				t.Errorf("Expected tiebreak order to end with team_id, got %s", last)
			}
		})
	}
}

func TestTournamentHandler_LeagueTiebreakOrder(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.Leagues["points"] = config.SeedingSettings{TiebreakOrder: []string{"point_differential"}}
	h := NewTournamentHandler(NewRegistry(store.NewMemoryStore(), logger), nil, cfg, logger)

	result, err := h.HandleComputeSeeding(context.Background(), map[string]interface{}{
		"snapshot":  snapshotArg(t, playofftest.Snapshot()),
		"league_id": "points",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var seeded SeedingResult
	decodeResult(t, result, &seeded)
	want := []string{"point_differential", "team_id"}
	if strings.Join(seeded.TiebreakOrder, ",") != strings.Join(want, ",") {
		t.Errorf("Expected order %v, got %v", want, seeded.TiebreakOrder)
	}
}

func TestTournamentHandler_PlaysToChampion(t *testing.T) {
	h, st := newTestHandler(t, nil)
	ctx := context.Background()

	started := startTournament(t, h)
	id := started.Tournament.ID
	if len(started.WildCard.Matchups) != 6 {
		t.Fatalf("Expected 6 wild card matchups, got %d", len(started.WildCard.Matchups))
	}

	var champion playoff.TeamID
	for round := 0; round < 4; round++ {
		pending := pendingMatchups(t, h, id)
		if len(pending) == 0 {
			t.Fatalf("Expected pending matchups in round %d", round)
		}
		for _, m := range pending {
			result := recordResult(t, h, id, m, m.Home)
			if result.IsError {
				t.Fatalf("record_result %s returned error", m.ID)
			}
		}

		result, err := h.HandleAdvanceRound(ctx, map[string]interface{}{"tournament_id": id})
		if err != nil {
			t.Fatalf("advance_round failed: %v", err)
		}
		var adv AdvanceResult
		decodeResult(t, result, &adv)
		if !adv.Ready {
			t.Fatalf("Expected round %s to advance", adv.From)
		}
		champion = adv.Champion
	}

	if champion != "KC" {
		t.Errorf("Expected champion KC, got %s", champion)
	}

	result, err := h.HandleGetTournamentSummary(ctx, map[string]interface{}{"tournament_id": id})
	if err != nil {
		t.Fatalf("get_tournament_summary failed: %v", err)
	}
	var summary tournament.Summary
	decodeResult(t, result, &summary)
	if !summary.IsComplete || summary.TotalGamesPlayed != playoff.TotalGames || summary.RoundsCompleted != 4 {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	rec, err := st.Load(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load stored tournament: %v", err)
	}
	if rec.Version != playoff.TotalGames+4 {
		t.Errorf("Expected stored version %d, got %d", playoff.TotalGames+4, rec.Version)
	}
}

func TestTournamentHandler_HandleRecordResult(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	started := startTournament(t, h)
	id := started.Tournament.ID
	first := started.WildCard.Matchups[0]

	if result := recordResult(t, h, id, first, first.Away); result.IsError {
		t.Fatal("Expected first result to be accepted")
	}

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantErr   bool // Go error for malformed arguments
		wantKind  string
		wantRecov string
	}{
		{
			name:    "missing tournament_id",
			args:    map[string]interface{}{"round": "wild_card", "matchup_id": "AFC-WC-1", "winner_team_id": "BUF"},
			wantErr: true,
		},
		{
			name:    "unknown round name",
			args:    map[string]interface{}{"tournament_id": id, "round": "playoffs", "matchup_id": "AFC-WC-1", "winner_team_id": "BUF"},
			wantErr: true,
		},
		{
			name: "score without the other side",
			args: map[string]interface{}{"tournament_id": id, "round": "wild_card", "matchup_id": "AFC-WC-2",
				"winner_team_id": "BAL", "home_score": float64(24)},
			wantErr: true,
		},
		{
			name: "fractional score",
			args: map[string]interface{}{"tournament_id": id, "round": "wild_card", "matchup_id": "AFC-WC-2",
				"winner_team_id": "BAL", "home_score": 24.5, "away_score": float64(10)},
			wantErr: true,
		},
		{
			name:      "duplicate result",
			args:      map[string]interface{}{"tournament_id": id, "round": "wild_card", "matchup_id": first.ID, "winner_team_id": string(first.Home)},
			wantKind:  "duplicate_result",
			wantRecov: "abort",
		},
		{
			name:      "unknown matchup",
			args:      map[string]interface{}{"tournament_id": id, "round": "wild_card", "matchup_id": "AFC-WC-9", "winner_team_id": "BUF"},
			wantKind:  "unknown_matchup",
			wantRecov: "ignore",
		},
		{
			name:      "future round",
			args:      map[string]interface{}{"tournament_id": id, "round": "divisional", "matchup_id": "AFC-DIV-1", "winner_team_id": "KC"},
			wantKind:  "unknown_matchup",
			wantRecov: "ignore",
		},
		{
			name:      "winner not in matchup",
			args:      map[string]interface{}{"tournament_id": id, "round": "wild_card", "matchup_id": "AFC-WC-2", "winner_team_id": "DET"},
			wantKind:  "unknown_matchup",
			wantRecov: "ignore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleRecordResult(context.Background(), tt.args)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			resp := decodeResult(t, result, nil)
			if !result.IsError {
				t.Fatal("Expected error result")
			}
			if resp.Error.Kind != tt.wantKind {
				t.Errorf("Expected kind '%s', got '%s'", tt.wantKind, resp.Error.Kind)
			}
			if resp.Error.Recovery != tt.wantRecov {
				t.Errorf("Expected recovery '%s', got '%s'", tt.wantRecov, resp.Error.Recovery)
			}
		})
	}

	// rejected calls leave the tournament as it was
	if got := len(pendingMatchups(t, h, id)); got != 5 {
		t.Errorf("Expected 5 pending matchups, got %d", got)
	}
}

func TestTournamentHandler_RecordResultWithScore(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	started := startTournament(t, h)
	m := started.WildCard.Matchups[1]

	result, err := h.HandleRecordResult(context.Background(), map[string]interface{}{
		"tournament_id":  started.Tournament.ID,
		"round":          "wild_card",
		"matchup_id":     m.ID,
		"winner_team_id": string(m.Home),
		"home_score":     float64(31),
		"away_score":     float64(17),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var recorded playoff.Matchup
	decodeResult(t, result, &recorded)
	if recorded.Winner != m.Home {
		t.Errorf("Expected winner %s, got %s", m.Home, recorded.Winner)
	}
	if recorded.Score == nil || *recorded.Score != (playoff.Score{Home: 31, Away: 17}) {
		t.Errorf("Expected score 31-17, got %+v", recorded.Score)
	}
}

func TestTournamentHandler_AdvanceNotReady(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	started := startTournament(t, h)

	result, err := h.HandleAdvanceRound(context.Background(), map[string]interface{}{"tournament_id": started.Tournament.ID})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var adv AdvanceResult
	resp := decodeResult(t, result, &adv)
	if result.IsError {
		t.Fatalf("Not ready should not be an error: %+v", resp.Error)
	}
	if adv.Ready {
		t.Error("Expected not ready")
	}
	if adv.From != playoff.RoundWildCard || len(adv.Pending) != 6 {
		t.Errorf("Unexpected advance result: %+v", adv)
	}
}

func TestTournamentHandler_HandleGetBracket(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	started := startTournament(t, h)
	id := started.Tournament.ID

	tests := []struct {
		name      string
		round     interface{}
		wantErr   bool
		wantError bool
	}{
		{name: "active round"},
		{name: "all rounds", round: "all"},
		{name: "wild card by name", round: "wild_card"},
		{name: "round not built", round: "super_bowl", wantError: true},
		{name: "unknown round", round: "preseason", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{"tournament_id": id}
			if tt.round != nil {
				args["round"] = tt.round
			}
			result, err := h.HandleGetBracket(context.Background(), args)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			resp := decodeResult(t, result, nil)
			if result.IsError != tt.wantError {
				t.Fatalf("Expected IsError=%v, got %v (%+v)", tt.wantError, result.IsError, resp.Error)
			}
			if !tt.wantError && resp.Metadata.TournamentID != id {
				t.Errorf("Expected metadata tournament id %s, got %s", id, resp.Metadata.TournamentID)
			}
		})
	}

	if _, err := h.HandleGetBracket(context.Background(), map[string]interface{}{}); err == nil {
		t.Error("Expected error for missing tournament_id")
	}
}

func TestTournamentHandler_UnknownTournament(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	result, err := h.HandleGetTournamentSummary(context.Background(), map[string]interface{}{"tournament_id": "nope"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	resp := decodeResult(t, result, nil)
	if !result.IsError {
		t.Fatal("Expected error result")
	}
	if !strings.Contains(resp.Error.Message, "not found") {
		t.Errorf("Expected not found message, got '%s'", resp.Error.Message)
	}
}

func TestTournamentHandler_HandleSimulateTournament(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	started := startTournament(t, h)
	id := started.Tournament.ID

	// the first wild card game is already decided before simulating
	first := started.WildCard.Matchups[0]
	recordResult(t, h, id, first, first.Home)

	result, err := h.HandleSimulateTournament(context.Background(), map[string]interface{}{
		"tournament_id": id,
		"winners": map[string]interface{}{
			"NFC-WC-1":   "GB",
			"NFC-DIV-1":  "GB",
			"NFC-CONF-1": "GB",
			"SB-1":       "GB",
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var summary tournament.Summary
	resp := decodeResult(t, result, &summary)
	if result.IsError {
		t.Fatalf("Unexpected error result: %+v", resp.Error)
	}
	if summary.Champion != "GB" || !summary.IsComplete {
		t.Errorf("Expected GB champion, got %+v", summary)
	}

	// the registry copy and the store agree after simulation
	summaryResult, err := h.HandleGetTournamentSummary(context.Background(), map[string]interface{}{"tournament_id": id})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var stored tournament.Summary
	decodeResult(t, summaryResult, &stored)
	if stored != summary {
		t.Errorf("Expected %+v, got %+v", summary, stored)
	}
}

func TestTournamentHandler_HandleListTournaments(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	a := startTournament(t, h)
	b := startTournament(t, h)

	result, err := h.HandleListTournaments(context.Background(), nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var ids []string
	decodeResult(t, result, &ids)

	found := make(map[string]bool)
	for _, id := range ids {
		found[id] = true
	}
	if len(ids) != 2 || !found[a.Tournament.ID] || !found[b.Tournament.ID] {
		t.Errorf("Expected both tournaments listed, got %v", ids)
	}
}

// failingStore rejects every append after the first failAfter
type failingStore struct {
	store.Store
	mu        sync.Mutex
	appends   int
	failAfter int
}

func (s *failingStore) Append(ctx context.Context, id string, expected int, events []tournament.Event) (int, error) {
	s.mu.Lock()
	s.appends++
	fail := s.appends > s.failAfter
	s.mu.Unlock()
	if fail {
		return 0, errors.New("connection reset")
	}
	return s.Store.Append(ctx, id, expected, events)
}

func TestRegistry_ReloadsAfterFailedSave(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	mem := store.NewMemoryStore()
	broken := &failingStore{Store: mem, failAfter: 1}
	registry := NewRegistry(broken, logger)

	summary, err := registry.Create(ctx, playofftest.Seedings(), "2024")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	id := summary.ID

	record := func(matchupID string, winner playoff.TeamID) error {
		return registry.With(ctx, id, func(tr *tournament.Tournament) error {
			return tr.RecordResult(playoff.RoundWildCard, matchupID, winner, nil)
		})
	}

	if err := record("AFC-WC-1", "BUF"); err != nil {
		t.Fatalf("First result should persist: %v", err)
	}
	if err := record("AFC-WC-2", "BAL"); err == nil {
		t.Fatal("Expected the failed save to surface")
	}

	var played int
	if err := registry.With(ctx, id, func(tr *tournament.Tournament) error {
		played = tr.Summary().TotalGamesPlayed
		return nil
	}); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if played != 1 {
		t.Errorf("Expected the unsaved result to be dropped, got %d games played", played)
	}
}

func TestRegistry_SerializesCallsPerTournament(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	st := store.NewMemoryStore()
	registry := NewRegistry(st, logger)

	summary, err := registry.Create(ctx, playofftest.Seedings(), "2024")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var wc playoff.Bracket
	_ = registry.With(ctx, summary.ID, func(tr *tournament.Tournament) error {
		wc = tr.ActiveBracket()
		return nil
	})

	var wg sync.WaitGroup
	errs := make(chan error, len(wc.Matchups))
	for _, m := range wc.Matchups {
		m := m
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- registry.With(ctx, summary.ID, func(tr *tournament.Tournament) error {
				return tr.RecordResult(m.Round, m.ID, m.Home, nil)
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	}

	rec, err := st.Load(ctx, summary.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec.Version != len(wc.Matchups) {
		t.Errorf("Expected version %d, got %d", len(wc.Matchups), rec.Version)
	}
}

func TestRegistry_UnknownTournament(t *testing.T) {
	logger, _ := test.NewNullLogger()
	registry := NewRegistry(store.NewMemoryStore(), logger)

	err := registry.With(context.Background(), "missing", func(*tournament.Tournament) error {
		return fmt.Errorf("should not run")
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if len(registry.entries) != 0 {
		t.Errorf("Expected no cached entries, got %d", len(registry.entries))
	}
}
