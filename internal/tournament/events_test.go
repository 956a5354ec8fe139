package tournament

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff/playofftest"
)

func TestRestore_ReplaysToSameState(t *testing.T) {
	tr := newTournament(t)
	playRound(t, tr, away)
	_, err := tr.TryAdvance()
	require.NoError(t, err)
	playRound(t, tr, home)
	// leave one conference game pending
	_, err = tr.TryAdvance()
	require.NoError(t, err)
	pending := tr.PendingMatchups()
	require.NoError(t, tr.RecordResult(tr.Round(), pending[0].ID, pending[0].Away, &playoff.Score{Home: 10, Away: 13}))

	restored, err := Restore(tr.ID(), tr.Seedings(), tr.Events())
	require.NoError(t, err)

	assert.Equal(t, tr.Summary(), restored.Summary())
	assert.Equal(t, tr.Version(), restored.Version())
	if diff := cmp.Diff(tr.Brackets(), restored.Brackets()); diff != "" {
		t.Errorf("restored brackets differ (-want +got):\n%s", diff)
	}
	assert.Empty(t, cmp.Diff(tr.Events(), restored.Events()))
}

func TestRestore_Complete(t *testing.T) {
	tr := newTournament(t)
	for !tr.Complete() {
		playRound(t, tr, home)
		_, err := tr.TryAdvance()
		require.NoError(t, err)
	}

	restored, err := Restore(tr.ID(), tr.Seedings(), tr.Events())
	require.NoError(t, err)
	assert.Equal(t, tr.Summary(), restored.Summary())

	champion, ok := restored.Champion()
	assert.True(t, ok)
	assert.Equal(t, playoff.TeamID("KC"), champion)
}

func TestRestore_DoesNotNotifyObserver(t *testing.T) {
	tr := newTournament(t)
	playRound(t, tr, home)

	obs := &recordingObserver{}
	restored, err := Restore(tr.ID(), tr.Seedings(), tr.Events(), WithObserver(obs))
	require.NoError(t, err)
	assert.Empty(t, obs.results)

	_, err = restored.TryAdvance()
	require.NoError(t, err)
	assert.Equal(t, []playoff.Round{playoff.RoundDivisional}, obs.advances)
}

func TestRestore_Corruption(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
	}{
		{
			name:   "unknown event type",
			events: []Event{{Type: "rewind", Round: playoff.RoundWildCard}},
		},
		{
			name:   "advance before round resolved",
			events: []Event{{Type: EventAdvance, Round: playoff.RoundWildCard}},
		},
		{
			name:   "advance from the wrong round",
			events: []Event{{Type: EventAdvance, Round: playoff.RoundConference}},
		},
		{
			name: "duplicate result",
			events: []Event{
				{Type: EventResult, Round: playoff.RoundWildCard, MatchupID: "AFC-WC-1", Winner: "BUF"},
				{Type: EventResult, Round: playoff.RoundWildCard, MatchupID: "AFC-WC-1", Winner: "DEN"},
			},
		},
		{
			name: "result for a matchup that does not exist",
			events: []Event{
				{Type: EventResult, Round: playoff.RoundWildCard, MatchupID: "AFC-WC-4", Winner: "KC"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore("corrupt", playofftest.Seedings(), tt.events)
			require.ErrorIs(t, err, playoff.ErrStateCorruption)
		})
	}
}

func TestRestore_BadSeedings(t *testing.T) {
	_, err := Restore("corrupt", nil, nil)
	require.ErrorIs(t, err, playoff.ErrStateCorruption)
	assert.ErrorIs(t, err, playoff.ErrInvalidSeedingInput)
}

func TestEventsSince(t *testing.T) {
	tr := newTournament(t)
	playRound(t, tr, home)
	_, err := tr.TryAdvance()
	require.NoError(t, err)

	require.Equal(t, 7, tr.Version())
	tail := tr.EventsSince(5)
	require.Len(t, tail, 2)
	assert.Equal(t, EventResult, tail[0].Type)
	assert.Equal(t, Event{Type: EventAdvance, Round: playoff.RoundWildCard}, tail[1])

	assert.Nil(t, tr.EventsSince(7))
	assert.Len(t, tr.EventsSince(-1), 7)
}
