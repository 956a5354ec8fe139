package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff/playofftest"
	"github.com/sam-maryland/nfl-playoff-engine/internal/tournament"
)

func newTournament(t *testing.T, id string) *tournament.Tournament {
	t.Helper()
	tr, err := tournament.New(id, playofftest.Seedings())
	require.NoError(t, err)
	return tr
}

func playRound(t *testing.T, tr *tournament.Tournament) {
	t.Helper()
	for _, m := range tr.PendingMatchups() {
		require.NoError(t, tr.RecordResult(tr.Round(), m.ID, m.Home, &playoff.Score{Home: 21, Away: 14}))
	}
	_, err := tr.TryAdvance()
	require.NoError(t, err)
}

// runStoreContract exercises behavior every Store implementation must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("create and load", func(t *testing.T) {
		tr := newTournament(t, "contract-create")
		require.NoError(t, s.Create(ctx, NewRecord(tr, "2024")))

		rec, err := s.Load(ctx, tr.ID())
		require.NoError(t, err)
		assert.Equal(t, tr.ID(), rec.ID)
		assert.Equal(t, "2024", rec.Season)
		assert.Equal(t, 0, rec.Version)
		assert.Empty(t, rec.Events)
		assert.Equal(t, tr.Seedings(), rec.Seedings)
	})

	t.Run("create twice", func(t *testing.T) {
		tr := newTournament(t, "contract-dup")
		require.NoError(t, s.Create(ctx, NewRecord(tr, "")))
		assert.ErrorIs(t, s.Create(ctx, NewRecord(tr, "")), ErrExists)
	})

	t.Run("load missing", func(t *testing.T) {
		_, err := s.Load(ctx, "contract-missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("append with version check", func(t *testing.T) {
		tr := newTournament(t, "contract-append")
		require.NoError(t, s.Create(ctx, NewRecord(tr, "")))

		playRound(t, tr)
		version, err := s.Append(ctx, tr.ID(), 0, tr.Events())
		require.NoError(t, err)
		assert.Equal(t, 7, version)

		_, err = s.Append(ctx, tr.ID(), 0, tr.Events())
		assert.ErrorIs(t, err, ErrVersionConflict)

		rec, err := s.Load(ctx, tr.ID())
		require.NoError(t, err)
		assert.Equal(t, 7, rec.Version)
		assert.Equal(t, tr.Events(), rec.Events)
	})

	t.Run("append missing", func(t *testing.T) {
		_, err := s.Append(ctx, "contract-nowhere", 0, []tournament.Event{{Type: tournament.EventAdvance}})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save and open", func(t *testing.T) {
		tr := newTournament(t, "contract-open")
		require.NoError(t, s.Create(ctx, NewRecord(tr, "")))

		stored := 0
		for !tr.Complete() {
			playRound(t, tr)
			var err error
			stored, err = Save(ctx, s, tr, stored)
			require.NoError(t, err)
		}
		assert.Equal(t, tr.Version(), stored)

		opened, err := Open(ctx, s, tr.ID())
		require.NoError(t, err)
		assert.Equal(t, tr.Summary(), opened.Summary())
	})

	t.Run("list", func(t *testing.T) {
		ids, err := s.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, "contract-create")
		assert.Contains(t, ids, "contract-open")
	})
}

func TestSave_NothingNew(t *testing.T) {
	s := NewMemoryStore()
	tr := newTournament(t, "idle")
	require.NoError(t, s.Create(context.Background(), NewRecord(tr, "")))

	version, err := Save(context.Background(), s, tr, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}

func TestSave_StaleVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tr := newTournament(t, "stale")
	require.NoError(t, s.Create(ctx, NewRecord(tr, "")))

	playRound(t, tr)
	_, err := Save(ctx, s, tr, 0)
	require.NoError(t, err)

	// a second writer that never saw the first save
	_, err = Save(ctx, s, tr, 3)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestOpen_Corrupt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tr := newTournament(t, "corrupt")
	rec := NewRecord(tr, "")
	rec.Events = []tournament.Event{
		{Type: tournament.EventAdvance, Round: playoff.RoundWildCard},
	}
	rec.Version = 1
	require.NoError(t, s.Create(ctx, rec))

	_, err := Open(ctx, s, "corrupt")
	assert.ErrorIs(t, err, playoff.ErrStateCorruption)

	rec.ID = "miscounted"
	rec.Events = nil
	require.NoError(t, s.Create(ctx, rec))
	_, err = Open(ctx, s, "miscounted")
	assert.ErrorIs(t, err, playoff.ErrStateCorruption)

	_, err = Open(ctx, s, "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}
