package runner

import (
	"context"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

// Favorites is a GameSource in which the better seed always wins; on equal seeds the
// home-slot team wins. It reports no score.
type Favorites struct{}

func (Favorites) Play(_ context.Context, _ string, m playoff.Matchup) (Outcome, error) {
	if m.AwaySeed < m.HomeSeed {
		return Outcome{Winner: m.Away}, nil
	}
	return Outcome{Winner: m.Home}, nil
}

// Scripted is a GameSource that reports pre-arranged winners by matchup id and falls back
// to Favorites for anything unscripted.
type Scripted map[string]playoff.TeamID

func (s Scripted) Play(ctx context.Context, id string, m playoff.Matchup) (Outcome, error) {
	if w, ok := s[m.ID]; ok {
		return Outcome{Winner: w}, nil
	}
	return Favorites{}.Play(ctx, id, m)
}
