// Package seeding ranks a conference's regular-season records into a seven-team playoff field.
package seeding

import (
	"sort"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

const (
	teamsPerConference = 16
	divisionsPerConf   = 4
	teamsPerDivision   = 4
)

// Calculator computes conference seedings. It holds no state beyond its tiebreak chain
// and is safe for concurrent use.
type Calculator struct {
	order []Tiebreaker
}

// NewCalculator creates a calculator using the given chain after win percentage.
// An empty order selects DefaultOrder. The lowest team id always closes the chain.
func NewCalculator(order ...Tiebreaker) *Calculator {
	return &Calculator{order: normalizeOrder(order)}
}

// Order returns the effective chain, including the team id fallback.
func (c *Calculator) Order() []Tiebreaker {
	out := make([]Tiebreaker, len(c.order))
	copy(out, c.order)
	return out
}

// Compute returns the seven seeds of the conference described by teams.
func Compute(teams []playoff.TeamRecord, h2h playoff.HeadToHead) (playoff.ConferenceSeeding, error) {
	return NewCalculator().Compute(teams, h2h)
}

// Compute validates the sixteen conference records and returns the seeding:
// division winners take seeds 1-4, the best three remaining teams take 5-7.
func (c *Calculator) Compute(teams []playoff.TeamRecord, h2h playoff.HeadToHead) (playoff.ConferenceSeeding, error) {
	divisions, err := validateConference(teams)
	if err != nil {
		return playoff.ConferenceSeeding{}, err
	}
	conference := teams[0].Conference

	divisionIDs := make([]playoff.DivisionID, 0, len(divisions))
	for id := range divisions {
		divisionIDs = append(divisionIDs, id)
	}
	sort.Slice(divisionIDs, func(i, j int) bool { return divisionIDs[i] < divisionIDs[j] })

	winners := make([]playoff.TeamRecord, 0, divisionsPerConf)
	isWinner := make(map[playoff.TeamID]bool, divisionsPerConf)
	for _, id := range divisionIDs {
		ranked := c.Rank(divisions[id], h2h)
		winners = append(winners, ranked[0])
		isWinner[ranked[0].TeamID] = true
	}

	var rest []playoff.TeamRecord
	for _, t := range teams {
		if !isWinner[t.TeamID] {
			rest = append(rest, t)
		}
	}

	seeding := playoff.ConferenceSeeding{
		Conference: conference,
		Seeds:      make([]playoff.Seed, 0, playoff.SeedsPerConference),
	}
	for _, t := range c.Rank(winners, h2h) {
		seeding.Seeds = append(seeding.Seeds, newSeed(conference, len(seeding.Seeds)+1, t, true))
	}
	wildcards := c.Rank(rest, h2h)
	for _, t := range wildcards[:playoff.SeedsPerConference-playoff.DivisionWinners] {
		seeding.Seeds = append(seeding.Seeds, newSeed(conference, len(seeding.Seeds)+1, t, false))
	}

	if err := seeding.Validate(); err != nil {
		return playoff.ConferenceSeeding{}, err
	}
	return seeding, nil
}

// ComputeAll seeds both conferences of a snapshot, ordered by conference id.
func (c *Calculator) ComputeAll(snapshot *playoff.Snapshot) ([]playoff.ConferenceSeeding, error) {
	if snapshot == nil {
		return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "standings snapshot is nil")
	}
	conferences := snapshot.Conferences()
	if len(conferences) != 2 {
		return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "snapshot must contain exactly two conferences").
			WithCounts(2, len(conferences))
	}

	seedings := make([]playoff.ConferenceSeeding, 0, len(conferences))
	for _, conf := range conferences {
		if conf == "" {
			return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "team without conference id in snapshot")
		}
		s, err := c.Compute(snapshot.Conference(conf), snapshot.HeadToHead)
		if err != nil {
			return nil, err
		}
		seedings = append(seedings, s)
	}
	return seedings, nil
}

func newSeed(conf playoff.ConferenceID, number int, t playoff.TeamRecord, divisionWinner bool) playoff.Seed {
	return playoff.Seed{
		Conference:     conf,
		Number:         number,
		TeamID:         t.TeamID,
		DivisionWinner: divisionWinner,
		WinPct:         t.WinPct(),
	}
}

// validateConference enforces 16 teams in one conference split into four divisions of four.
func validateConference(teams []playoff.TeamRecord) (map[playoff.DivisionID][]playoff.TeamRecord, error) {
	if len(teams) != teamsPerConference {
		return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "conference must have %d teams", teamsPerConference).
			WithCounts(teamsPerConference, len(teams))
	}

	conference := teams[0].Conference
	seen := make(map[playoff.TeamID]bool, len(teams))
	divisions := make(map[playoff.DivisionID][]playoff.TeamRecord)
	for _, t := range teams {
		switch {
		case t.TeamID == "":
			return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "team record without team id")
		case t.Conference == "":
			return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "team has no conference id").WithTeams(t.TeamID)
		case t.Division == "":
			return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "team has no division id").WithTeams(t.TeamID)
		case t.Conference != conference:
			return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "teams from conferences %s and %s mixed", conference, t.Conference).
				WithTeams(t.TeamID)
		case t.Wins < 0 || t.Losses < 0 || t.Ties < 0:
			return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "negative record").WithTeams(t.TeamID)
		case seen[t.TeamID]:
			return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "duplicate team").WithTeams(t.TeamID)
		}
		seen[t.TeamID] = true
		divisions[t.Division] = append(divisions[t.Division], t)
	}

	if len(divisions) != divisionsPerConf {
		return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "conference %s must have %d divisions", conference, divisionsPerConf).
			WithCounts(divisionsPerConf, len(divisions))
	}
	for id, members := range divisions {
		if len(members) != teamsPerDivision {
			return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "division %s must have %d teams", id, teamsPerDivision).
				WithCounts(teamsPerDivision, len(members))
		}
	}
	return divisions, nil
}
