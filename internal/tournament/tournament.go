// Package tournament owns postseason round progression. A Tournament is a caller-owned
// handle; it performs no I/O and no locking, so exactly one goroutine may mutate it at a time.
package tournament

import (
	"github.com/sam-maryland/nfl-playoff-engine/internal/bracket"
	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

// Tournament is the state machine for one playoff run.
type Tournament struct {
	id              string
	seedings        []playoff.ConferenceSeeding
	builder         *bracket.Builder
	round           playoff.Round
	brackets        map[playoff.Round]playoff.Bracket
	gamesPlayed     int
	roundsCompleted int
	champion        playoff.TeamID
	journal         []Event
	observer        Observer
}

// Option configures a Tournament.
type Option func(*Tournament)

// WithObserver installs a hook notified after every state change.
func WithObserver(o Observer) Option {
	return func(t *Tournament) {
		if o != nil {
			t.observer = o
		}
	}
}

// Advance is the outcome of TryAdvance. Ready is false when the active round still has
// pending matchups; that is a normal result, not an error.
type Advance struct {
	Ready    bool
	From     playoff.Round
	To       playoff.Round
	Bracket  *playoff.Bracket // nil unless a new round was built
	Champion playoff.TeamID   // set when the super bowl resolved
}

// New seeds a tournament and builds its wild card round.
func New(id string, seedings []playoff.ConferenceSeeding, opts ...Option) (*Tournament, error) {
	builder, err := bracket.NewBuilder(seedings...)
	if err != nil {
		return nil, err
	}
	wc, err := builder.WildCard()
	if err != nil {
		return nil, err
	}

	t := &Tournament{
		id:       id,
		seedings: builder.Seedings(),
		builder:  builder,
		round:    playoff.RoundWildCard,
		brackets: map[playoff.Round]playoff.Bracket{playoff.RoundWildCard: wc},
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Tournament) ID() string { return t.id }

// Round returns the active round.
func (t *Tournament) Round() playoff.Round { return t.round }

// Complete reports whether the super bowl has been decided and advanced past.
func (t *Tournament) Complete() bool { return t.round == playoff.RoundComplete }

// Champion returns the winner of the super bowl once the tournament is complete.
func (t *Tournament) Champion() (playoff.TeamID, bool) {
	return t.champion, t.champion != ""
}

// Seedings returns the seedings the tournament was started with, ordered by conference.
func (t *Tournament) Seedings() []playoff.ConferenceSeeding {
	out := make([]playoff.ConferenceSeeding, len(t.seedings))
	for i, s := range t.seedings {
		out[i] = playoff.ConferenceSeeding{Conference: s.Conference, Seeds: append([]playoff.Seed(nil), s.Seeds...)}
	}
	return out
}

// ActiveBracket returns a copy of the current round. After completion it is the final
// super bowl bracket.
func (t *Tournament) ActiveBracket() playoff.Bracket {
	if t.round == playoff.RoundComplete {
		return t.brackets[playoff.RoundSuperBowl].Clone()
	}
	return t.brackets[t.round].Clone()
}

// Bracket returns a copy of a round that has already been built.
func (t *Tournament) Bracket(round playoff.Round) (playoff.Bracket, bool) {
	b, ok := t.brackets[round]
	if !ok {
		return playoff.Bracket{}, false
	}
	return b.Clone(), true
}

// Brackets returns every built round in round order.
func (t *Tournament) Brackets() []playoff.Bracket {
	var out []playoff.Bracket
	for _, r := range playoff.Rounds {
		if b, ok := t.brackets[r]; ok {
			out = append(out, b.Clone())
		}
	}
	return out
}

// PendingMatchups returns the active round's matchups that still need a result.
func (t *Tournament) PendingMatchups() []playoff.Matchup {
	if t.round == playoff.RoundComplete {
		return nil
	}
	return t.brackets[t.round].Pending()
}

// RecordResult stores the winner of a matchup in the active round. On error the
// tournament is unchanged.
func (t *Tournament) RecordResult(round playoff.Round, matchupID string, winner playoff.TeamID, score *playoff.Score) error {
	if !round.Valid() {
		return playoff.Errorf(playoff.KindUnknownMatchup, "result reported for unknown round").WithMatchup(matchupID)
	}
	if round != t.round {
		return playoff.Errorf(playoff.KindUnknownMatchup, "result reported for %s while %s is active", round, t.round).
			InRound(round).
			WithMatchup(matchupID).
			WithTeams(winner)
	}

	active := t.brackets[t.round]
	idx, ok := active.Find(matchupID)
	if !ok {
		return playoff.Errorf(playoff.KindUnknownMatchup, "matchup is not in the active bracket").
			InRound(round).
			WithMatchup(matchupID).
			WithTeams(winner)
	}

	m := active.Matchups[idx]
	if m.Resolved() {
		return playoff.Errorf(playoff.KindDuplicateResult, "matchup already has a recorded winner").
			InRound(round).
			WithMatchup(matchupID).
			WithTeams(m.Winner, winner)
	}
	if !m.Involves(winner) {
		return playoff.Errorf(playoff.KindUnknownMatchup, "winner does not play in the matchup").
			InRound(round).
			WithMatchup(matchupID).
			WithTeams(winner, m.Home, m.Away)
	}

	m.Winner = winner
	m.Score = copyScore(score)
	active.Matchups[idx] = m
	t.brackets[t.round] = active
	t.gamesPlayed++
	t.journal = append(t.journal, Event{
		Type:      EventResult,
		Round:     round,
		MatchupID: matchupID,
		Winner:    winner,
		Score:     copyScore(score),
	})

	t.observer.ResultRecorded(t.id, m)
	return nil
}

// TryAdvance moves to the next round when every game of the active round has a winner.
// An unresolved round returns Advance{Ready: false} and leaves the tournament untouched.
func (t *Tournament) TryAdvance() (Advance, error) {
	if t.round == playoff.RoundComplete {
		return Advance{From: t.round, To: t.round}, nil
	}

	active := t.brackets[t.round]
	if !active.Resolved() {
		return Advance{From: t.round, To: t.round}, nil
	}
	if err := t.Verify(); err != nil {
		return Advance{}, err
	}

	from := t.round
	if from == playoff.RoundSuperBowl {
		t.champion = active.Matchups[0].Winner
		t.round = playoff.RoundComplete
		t.roundsCompleted++
		t.journal = append(t.journal, Event{Type: EventAdvance, Round: from})

		t.observer.RoundAdvanced(t.id, from, t.round)
		t.observer.TournamentCompleted(t.id, t.Summary())
		return Advance{Ready: true, From: from, To: t.round, Champion: t.champion}, nil
	}

	next, err := t.builder.Build(active)
	if err != nil {
		return Advance{}, err
	}
	t.brackets[next.Round] = next
	t.round = next.Round
	t.roundsCompleted++
	t.journal = append(t.journal, Event{Type: EventAdvance, Round: from})

	t.observer.RoundAdvanced(t.id, from, t.round)
	view := next.Clone()
	return Advance{Ready: true, From: from, To: t.round, Bracket: &view}, nil
}

// Summary is the externally visible progress of a tournament.
type Summary struct {
	ID               string         `json:"tournament_id"`
	CurrentRound     playoff.Round  `json:"current_round"`
	RoundsCompleted  int            `json:"rounds_completed"`
	TotalGamesPlayed int            `json:"total_games_played"`
	IsComplete       bool           `json:"is_complete"`
	Champion         playoff.TeamID `json:"champion_team_id,omitempty"`
}

func (t *Tournament) Summary() Summary {
	return Summary{
		ID:               t.id,
		CurrentRound:     t.round,
		RoundsCompleted:  t.roundsCompleted,
		TotalGamesPlayed: t.gamesPlayed,
		IsComplete:       t.round == playoff.RoundComplete,
		Champion:         t.champion,
	}
}

// Verify checks the cross-round invariants: round order, per-round game counts, the games
// played counter, and that every team in a later round won its way there.
func (t *Tournament) Verify() error {
	corrupt := func(format string, args ...interface{}) *playoff.Error {
		return playoff.Errorf(playoff.KindStateCorruption, format, args...)
	}

	if !t.round.Valid() {
		return corrupt("active round %s is not a tournament state", t.round)
	}
	if t.roundsCompleted != int(t.round) {
		return corrupt("completed round counter disagrees with the active round").
			InRound(t.round).
			WithCounts(int(t.round), t.roundsCompleted)
	}

	played := 0
	for _, r := range playoff.Rounds {
		b, built := t.brackets[r]
		switch {
		case r > t.round && built:
			return corrupt("round %s built ahead of the active round", r).InRound(r)
		case r <= t.round && !built:
			return corrupt("round %s is missing", r).InRound(r)
		case !built:
			continue
		}

		if len(b.Matchups) != r.Games() {
			return corrupt("round has wrong matchup count").InRound(r).WithCounts(r.Games(), len(b.Matchups))
		}
		if r < t.round && !b.Resolved() {
			return corrupt("round was advanced past before it resolved").
				InRound(r).
				WithCounts(r.Games(), b.ResolvedCount())
		}
		played += b.ResolvedCount()

		if prior, ok := t.brackets[r-1]; ok && r > playoff.RoundWildCard {
			if err := t.verifyLineage(prior, b); err != nil {
				return err
			}
		}
	}

	if played != t.gamesPlayed {
		return corrupt("games played counter disagrees with recorded results").WithCounts(played, t.gamesPlayed)
	}

	if t.round == playoff.RoundComplete {
		final := t.brackets[playoff.RoundSuperBowl].Matchups[0]
		if t.champion == "" || t.champion != final.Winner {
			return corrupt("champion does not match the super bowl winner").
				InRound(playoff.RoundSuperBowl).
				WithTeams(t.champion, final.Winner)
		}
	} else if t.champion != "" {
		return corrupt("champion set before completion").WithTeams(t.champion)
	}
	return nil
}

// verifyLineage checks that every team in next won in prior, or held a bye into the divisional round.
func (t *Tournament) verifyLineage(prior, next playoff.Bracket) error {
	advanced := make(map[playoff.TeamID]bool)
	for _, w := range prior.Winners() {
		advanced[w] = true
	}
	if next.Round == playoff.RoundDivisional {
		for _, s := range t.seedings {
			advanced[s.TopSeed().TeamID] = true
		}
	}

	for _, m := range next.Matchups {
		for _, team := range []playoff.TeamID{m.Home, m.Away} {
			if !advanced[team] {
				return playoff.Errorf(playoff.KindStateCorruption, "team did not advance from %s", prior.Round).
					InRound(next.Round).
					WithMatchup(m.ID).
					WithTeams(team)
			}
		}
	}
	return nil
}
