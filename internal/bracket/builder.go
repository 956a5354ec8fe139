// Package bracket builds postseason rounds from a seeding or from a resolved prior round,
// reseeding survivors by their original seed numbers.
package bracket

import (
	"fmt"
	"sort"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

// Builder produces each round's matchups for one tournament. It is immutable after construction.
type Builder struct {
	seedings []playoff.ConferenceSeeding
	byConf   map[playoff.ConferenceID]playoff.ConferenceSeeding
}

// NewBuilder binds a builder to the seedings of the two conferences.
func NewBuilder(seedings ...playoff.ConferenceSeeding) (*Builder, error) {
	if len(seedings) != 2 {
		return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "bracket needs two conference seedings").
			WithCounts(2, len(seedings))
	}

	b := &Builder{byConf: make(map[playoff.ConferenceID]playoff.ConferenceSeeding, 2)}
	teams := make(map[playoff.TeamID]bool)
	for _, s := range seedings {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := b.byConf[s.Conference]; dup {
			return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "conference %s seeded twice", s.Conference)
		}
		for _, seed := range s.Seeds {
			if teams[seed.TeamID] {
				return nil, playoff.Errorf(playoff.KindInvalidSeedingInput, "team seeded in both conferences").WithTeams(seed.TeamID)
			}
			teams[seed.TeamID] = true
		}
		b.byConf[s.Conference] = s
		b.seedings = append(b.seedings, s)
	}
	sort.Slice(b.seedings, func(i, j int) bool {
		return b.seedings[i].Conference < b.seedings[j].Conference
	})
	return b, nil
}

// Seedings returns the bound seedings ordered by conference id.
func (b *Builder) Seedings() []playoff.ConferenceSeeding {
	out := make([]playoff.ConferenceSeeding, len(b.seedings))
	copy(out, b.seedings)
	return out
}

// WildCard builds the opening round: 2v7, 3v6 and 4v5 in each conference, seed 1 on a bye.
func (b *Builder) WildCard() (playoff.Bracket, error) {
	next := playoff.Bracket{Round: playoff.RoundWildCard}
	for _, s := range b.seedings {
		matchups, err := pairBySeed(s.Conference, playoff.RoundWildCard, s.Seeds[1:])
		if err != nil {
			return playoff.Bracket{}, err
		}
		next.Matchups = append(next.Matchups, matchups...)
	}
	if err := b.check(next); err != nil {
		return playoff.Bracket{}, err
	}
	return next, nil
}

// Build produces the round after prior. prior must be fully resolved.
func (b *Builder) Build(prior playoff.Bracket) (playoff.Bracket, error) {
	if !prior.Round.Playable() {
		return playoff.Bracket{}, playoff.Errorf(playoff.KindInvalidBracket, "no round follows %s", prior.Round).InRound(prior.Round)
	}
	if !prior.Resolved() {
		return playoff.Bracket{}, playoff.Errorf(playoff.KindInvalidBracket, "prior round is not fully resolved").
			InRound(prior.Round).
			WithCounts(prior.Round.Games(), prior.ResolvedCount())
	}

	var (
		next playoff.Bracket
		err  error
	)
	switch prior.Round {
	case playoff.RoundWildCard:
		next, err = b.reseed(prior, playoff.RoundDivisional, true)
	case playoff.RoundDivisional:
		next, err = b.reseed(prior, playoff.RoundConference, false)
	case playoff.RoundConference:
		next, err = b.superBowl(prior)
	default:
		return playoff.Bracket{}, playoff.Errorf(playoff.KindInvalidBracket, "no round follows %s", prior.Round).InRound(prior.Round)
	}
	if err != nil {
		return playoff.Bracket{}, err
	}
	if err := b.check(next); err != nil {
		return playoff.Bracket{}, err
	}
	return next, nil
}

// reseed collects each conference's survivors by original seed and pairs best with worst.
func (b *Builder) reseed(prior playoff.Bracket, round playoff.Round, withBye bool) (playoff.Bracket, error) {
	next := playoff.Bracket{Round: round}
	for _, s := range b.seedings {
		var survivors []playoff.Seed
		if withBye {
			survivors = append(survivors, s.TopSeed())
		}
		winners, err := b.winners(prior, s)
		if err != nil {
			return playoff.Bracket{}, err
		}
		survivors = append(survivors, winners...)

		matchups, err := pairBySeed(s.Conference, round, survivors)
		if err != nil {
			return playoff.Bracket{}, err
		}
		next.Matchups = append(next.Matchups, matchups...)
	}
	return next, nil
}

func (b *Builder) superBowl(prior playoff.Bracket) (playoff.Bracket, error) {
	var champions []playoff.Seed
	for _, s := range b.seedings {
		winners, err := b.winners(prior, s)
		if err != nil {
			return playoff.Bracket{}, err
		}
		if len(winners) != 1 {
			return playoff.Bracket{}, playoff.Errorf(playoff.KindInvalidBracket, "conference %s must produce one champion", s.Conference).
				InRound(prior.Round).
				WithCounts(1, len(winners))
		}
		champions = append(champions, winners[0])
	}

	first, second := champions[0], champions[1]
	return playoff.Bracket{
		Round: playoff.RoundSuperBowl,
		Matchups: []playoff.Matchup{{
			ID:       matchupID("", playoff.RoundSuperBowl, 1),
			Round:    playoff.RoundSuperBowl,
			Home:     first.TeamID,
			HomeSeed: first.Number,
			Away:     second.TeamID,
			AwaySeed: second.Number,
			Neutral:  true,
		}},
	}, nil
}

// winners returns the original seeds of a conference's winners in prior.
func (b *Builder) winners(prior playoff.Bracket, s playoff.ConferenceSeeding) ([]playoff.Seed, error) {
	var out []playoff.Seed
	for _, m := range prior.Conference(s.Conference) {
		seed, ok := s.ByTeam(m.Winner)
		if !ok {
			return nil, playoff.Errorf(playoff.KindInvalidBracket, "winner is not seeded in conference %s", s.Conference).
				InRound(prior.Round).
				WithMatchup(m.ID).
				WithTeams(m.Winner)
		}
		out = append(out, seed)
	}
	return out, nil
}

// pairBySeed sorts seeds ascending and pairs the best remaining with the worst remaining;
// the better seed hosts.
func pairBySeed(conf playoff.ConferenceID, round playoff.Round, seeds []playoff.Seed) ([]playoff.Matchup, error) {
	if len(seeds)%2 != 0 {
		return nil, playoff.Errorf(playoff.KindInvalidBracket, "conference %s has an odd number of teams to pair", conf).
			InRound(round).
			WithCounts(len(seeds)+1, len(seeds))
	}
	sorted := make([]playoff.Seed, len(seeds))
	copy(sorted, seeds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	matchups := make([]playoff.Matchup, 0, len(sorted)/2)
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		home, away := sorted[i], sorted[j]
		matchups = append(matchups, playoff.Matchup{
			ID:         matchupID(conf, round, len(matchups)+1),
			Round:      round,
			Conference: conf,
			Home:       home.TeamID,
			HomeSeed:   home.Number,
			Away:       away.TeamID,
			AwaySeed:   away.Number,
		})
	}
	return matchups, nil
}

// check enforces the structural count and the per-matchup invariants of a built round.
func (b *Builder) check(br playoff.Bracket) error {
	if len(br.Matchups) != br.Round.Games() {
		return playoff.Errorf(playoff.KindInvalidBracket, "built round has wrong matchup count").
			InRound(br.Round).
			WithCounts(br.Round.Games(), len(br.Matchups))
	}

	seen := make(map[playoff.TeamID]bool)
	for _, m := range br.Matchups {
		if m.Home == m.Away {
			return playoff.Errorf(playoff.KindInvalidBracket, "team drawn against itself").
				InRound(br.Round).WithMatchup(m.ID).WithTeams(m.Home)
		}
		if seen[m.Home] || seen[m.Away] {
			return playoff.Errorf(playoff.KindInvalidBracket, "team drawn twice in one round").
				InRound(br.Round).WithMatchup(m.ID).WithTeams(m.Home, m.Away)
		}
		seen[m.Home], seen[m.Away] = true, true

		if br.Round != playoff.RoundSuperBowl {
			s, ok := b.byConf[m.Conference]
			_, homeIn := s.ByTeam(m.Home)
			_, awayIn := s.ByTeam(m.Away)
			if !ok || !homeIn || !awayIn {
				return playoff.Errorf(playoff.KindInvalidBracket, "matchup crosses conferences before the final").
					InRound(br.Round).WithMatchup(m.ID).WithTeams(m.Home, m.Away)
			}
		}
	}
	return nil
}

func matchupID(conf playoff.ConferenceID, round playoff.Round, n int) string {
	if conf == "" {
		return fmt.Sprintf("%s-%d", round.Code(), n)
	}
	return fmt.Sprintf("%s-%s-%d", conf, round.Code(), n)
}
