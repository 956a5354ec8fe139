package seeding

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff/playofftest"
)

func seedIDs(s playoff.ConferenceSeeding) []playoff.TeamID {
	ids := make([]playoff.TeamID, 0, len(s.Seeds))
	for _, seed := range s.Seeds {
		ids = append(ids, seed.TeamID)
	}
	return ids
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		conf  playoff.ConferenceID
		teams []playoff.TeamRecord
		want  []playoff.TeamID
	}{
		{"AFC", "AFC", playofftest.AFC(), playofftest.AFCSeeds},
		{"NFC", "NFC", playofftest.NFC(), playofftest.NFCSeeds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.teams, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.conf, got.Conference)
			assert.Equal(t, tt.want, seedIDs(got))
			for _, s := range got.Seeds {
				assert.Equal(t, s.Number <= playoff.DivisionWinners, s.DivisionWinner, "seed %d", s.Number)
				assert.Equal(t, tt.conf, s.Conference)
			}
			assert.NoError(t, got.Validate())
		})
	}
}

func TestCompute_DivisionWinnerOutranksBetterWildCard(t *testing.T) {
	got, err := Compute(playofftest.AFC(), nil)
	require.NoError(t, err)

	hou, _ := got.ByTeam("HOU")
	lac, _ := got.ByTeam("LAC")
	assert.Equal(t, 4, hou.Number)
	assert.Equal(t, 5, lac.Number)
	assert.Greater(t, lac.WinPct, hou.WinPct)
}

func TestCompute_Deterministic(t *testing.T) {
	teams := playofftest.AFC()
	first, err := Compute(teams, nil)
	require.NoError(t, err)

	reversed := make([]playoff.TeamRecord, len(teams))
	for i, team := range teams {
		reversed[len(teams)-1-i] = team
	}
	second, err := Compute(reversed, nil)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("seeding depends on input order (-first +second):\n%s", diff)
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	teams := playofftest.NFC()
	before := make([]playoff.TeamRecord, len(teams))
	copy(before, teams)

	_, err := Compute(teams, nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(before, teams))
}

func TestCompute_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]playoff.TeamRecord) []playoff.TeamRecord
	}{
		{
			name:   "fifteen teams",
			mutate: func(ts []playoff.TeamRecord) []playoff.TeamRecord { return ts[1:] },
		},
		{
			name:   "empty",
			mutate: func([]playoff.TeamRecord) []playoff.TeamRecord { return nil },
		},
		{
			name: "duplicate team",
			mutate: func(ts []playoff.TeamRecord) []playoff.TeamRecord {
				ts[1].TeamID = ts[0].TeamID
				return ts
			},
		},
		{
			name: "mixed conference",
			mutate: func(ts []playoff.TeamRecord) []playoff.TeamRecord {
				ts[5].Conference = "NFC"
				return ts
			},
		},
		{
			name: "missing division",
			mutate: func(ts []playoff.TeamRecord) []playoff.TeamRecord {
				ts[3].Division = ""
				return ts
			},
		},
		{
			name: "unbalanced divisions",
			mutate: func(ts []playoff.TeamRecord) []playoff.TeamRecord {
				ts[0].Division = "AFC North"
				return ts
			},
		},
		{
			name: "negative wins",
			mutate: func(ts []playoff.TeamRecord) []playoff.TeamRecord {
				ts[2].Wins = -1
				return ts
			},
		},
		{
			name: "missing team id",
			mutate: func(ts []playoff.TeamRecord) []playoff.TeamRecord {
				ts[7].TeamID = ""
				return ts
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.mutate(playofftest.AFC()), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, playoff.ErrInvalidSeedingInput), "got %v", err)

			kind, ok := playoff.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, playoff.SeverityHardStop, kind.Severity())
		})
	}
}

func TestComputeAll(t *testing.T) {
	got, err := NewCalculator().ComputeAll(playofftest.Snapshot())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, playoff.ConferenceID("AFC"), got[0].Conference)
	assert.Equal(t, playofftest.AFCSeeds, seedIDs(got[0]))
	assert.Equal(t, playoff.ConferenceID("NFC"), got[1].Conference)
	assert.Equal(t, playofftest.NFCSeeds, seedIDs(got[1]))
}

func TestComputeAll_Invalid(t *testing.T) {
	c := NewCalculator()

	_, err := c.ComputeAll(nil)
	assert.ErrorIs(t, err, playoff.ErrInvalidSeedingInput)

	_, err = c.ComputeAll(&playoff.Snapshot{Teams: playofftest.AFC()})
	assert.ErrorIs(t, err, playoff.ErrInvalidSeedingInput)
}

func TestCompute_DivisionTieBrokenByHeadToHead(t *testing.T) {
	teams := playofftest.AFC()
	// KC and LAC both finish 15-2; LAC swept KC.
	for i := range teams {
		if teams[i].TeamID == "LAC" {
			teams[i].Wins, teams[i].Losses = 15, 2
		}
	}
	h2h := playoff.HeadToHead{"LAC": {"KC": 2}}

	got, err := Compute(teams, h2h)
	require.NoError(t, err)

	lac, _ := got.ByTeam("LAC")
	_, kcIn := got.ByTeam("KC")
	assert.Equal(t, 1, lac.Number)
	assert.True(t, lac.DivisionWinner)
	assert.True(t, kcIn, "KC should still take a wild card")

	kc, _ := got.ByTeam("KC")
	assert.Equal(t, 5, kc.Number)
}
