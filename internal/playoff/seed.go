package playoff

import (
	"fmt"
)

// SeedsPerConference is the number of playoff teams per conference.
const SeedsPerConference = 7

// DivisionWinners is the number of seeds reserved for division winners.
const DivisionWinners = 4

// Seed is a team's postseason rank within its conference.
type Seed struct {
	Conference     ConferenceID `json:"conference" bson:"conference"`
	Number         int          `json:"seed" bson:"seed"`
	TeamID         TeamID       `json:"team_id" bson:"team_id"`
	DivisionWinner bool         `json:"division_winner" bson:"division_winner"`
	WinPct         float64      `json:"win_pct" bson:"win_pct"`
}

// ConferenceSeeding is the ordered seven-team field of one conference.
type ConferenceSeeding struct {
	Conference ConferenceID `json:"conference" bson:"conference"`
	Seeds      []Seed       `json:"seeds" bson:"seeds"`
}

// Validate checks seed numbering and the division-winner split.
func (c ConferenceSeeding) Validate() error {
	if len(c.Seeds) != SeedsPerConference {
		return Errorf(KindInvalidSeedingInput, "conference %s has wrong seed count", c.Conference).
			WithCounts(SeedsPerConference, len(c.Seeds))
	}
	teams := make(map[TeamID]bool, len(c.Seeds))
	for i, s := range c.Seeds {
		if s.Number != i+1 {
			return Errorf(KindInvalidSeedingInput, "conference %s seed at position %d is numbered %d", c.Conference, i+1, s.Number)
		}
		if s.Conference != c.Conference {
			return Errorf(KindInvalidSeedingInput, "seed %d belongs to conference %s, not %s", s.Number, s.Conference, c.Conference).
				WithTeams(s.TeamID)
		}
		if s.TeamID == "" {
			return Errorf(KindInvalidSeedingInput, "conference %s seed %d has no team", c.Conference, s.Number)
		}
		if teams[s.TeamID] {
			return Errorf(KindInvalidSeedingInput, "team seeded twice in conference %s", c.Conference).WithTeams(s.TeamID)
		}
		teams[s.TeamID] = true
		if wantWinner := s.Number <= DivisionWinners; s.DivisionWinner != wantWinner {
			return Errorf(KindInvalidSeedingInput, "conference %s seed %d division winner flag is %t", c.Conference, s.Number, s.DivisionWinner).
				WithTeams(s.TeamID)
		}
	}
	return nil
}

// BySeed returns the seed with the given number.
func (c ConferenceSeeding) BySeed(n int) (Seed, bool) {
	if n < 1 || n > len(c.Seeds) {
		return Seed{}, false
	}
	return c.Seeds[n-1], true
}

// ByTeam returns the seed held by a team.
func (c ConferenceSeeding) ByTeam(id TeamID) (Seed, bool) {
	for _, s := range c.Seeds {
		if s.TeamID == id {
			return s, true
		}
	}
	return Seed{}, false
}

// TopSeed returns the team holding the bye.
func (c ConferenceSeeding) TopSeed() Seed {
	s, _ := c.BySeed(1)
	return s
}

func (s Seed) String() string {
	return fmt.Sprintf("%s #%d %s", s.Conference, s.Number, s.TeamID)
}
