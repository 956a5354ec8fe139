package playoff

import (
	"fmt"
)

// Score is a reported final score. It is informational; the winner is reported separately.
type Score struct {
	Home int `json:"home" bson:"home"`
	Away int `json:"away" bson:"away"`
}

// Matchup is a single postseason game.
type Matchup struct {
	ID         string       `json:"id" bson:"id"`
	Round      Round        `json:"round" bson:"round"`
	Conference ConferenceID `json:"conference,omitempty" bson:"conference,omitempty"` // empty for the super bowl
	Home       TeamID       `json:"home_team_id" bson:"home"`
	HomeSeed   int          `json:"home_seed" bson:"home_seed"`
	Away       TeamID       `json:"away_team_id" bson:"away"`
	AwaySeed   int          `json:"away_seed" bson:"away_seed"`
	Neutral    bool         `json:"neutral_site,omitempty" bson:"neutral,omitempty"` // Home/Away are slot labels only
	Winner     TeamID       `json:"winner_team_id,omitempty" bson:"winner,omitempty"`
	Score      *Score       `json:"final_score,omitempty" bson:"score,omitempty"`
}

// Resolved reports whether a winner has been recorded.
func (m Matchup) Resolved() bool {
	return m.Winner != ""
}

// Involves reports whether the team plays in the matchup.
func (m Matchup) Involves(id TeamID) bool {
	return m.Home == id || m.Away == id
}

// Loser returns the team that did not win, or "" when unresolved.
func (m Matchup) Loser() TeamID {
	switch m.Winner {
	case "":
		return ""
	case m.Home:
		return m.Away
	default:
		return m.Home
	}
}

// WinnerSeed returns the original seed of the winner, or 0 when unresolved.
func (m Matchup) WinnerSeed() int {
	switch m.Winner {
	case "":
		return 0
	case m.Home:
		return m.HomeSeed
	default:
		return m.AwaySeed
	}
}

// HostedBy returns the host team. Neutral-site games have no host.
func (m Matchup) HostedBy() (TeamID, bool) {
	if m.Neutral {
		return "", false
	}
	return m.Home, true
}

func (m Matchup) String() string {
	sep := "@"
	if m.Neutral {
		sep = "vs"
	}
	return fmt.Sprintf("%s: (%d) %s %s (%d) %s", m.ID, m.AwaySeed, m.Away, sep, m.HomeSeed, m.Home)
}

// Bracket is the matchup set of one round.
type Bracket struct {
	Round    Round     `json:"round_name" bson:"round"`
	Matchups []Matchup `json:"matchups" bson:"matchups"`
}

// Clone returns a deep copy so callers cannot mutate engine state.
func (b Bracket) Clone() Bracket {
	out := Bracket{Round: b.Round, Matchups: make([]Matchup, len(b.Matchups))}
	for i, m := range b.Matchups {
		if m.Score != nil {
			s := *m.Score
			m.Score = &s
		}
		out.Matchups[i] = m
	}
	return out
}

// Find returns the index of a matchup by id.
func (b Bracket) Find(id string) (int, bool) {
	for i, m := range b.Matchups {
		if m.ID == id {
			return i, true
		}
	}
	return -1, false
}

// ResolvedCount returns how many matchups have a recorded winner.
func (b Bracket) ResolvedCount() int {
	n := 0
	for _, m := range b.Matchups {
		if m.Resolved() {
			n++
		}
	}
	return n
}

// Resolved reports whether the round has exactly its structural count of decided games.
func (b Bracket) Resolved() bool {
	return b.Round.Playable() && len(b.Matchups) == b.Round.Games() && b.ResolvedCount() == b.Round.Games()
}

// Winners returns the recorded winners in bracket order.
func (b Bracket) Winners() []TeamID {
	var out []TeamID
	for _, m := range b.Matchups {
		if m.Resolved() {
			out = append(out, m.Winner)
		}
	}
	return out
}

// Pending returns the matchups still awaiting a result.
func (b Bracket) Pending() []Matchup {
	var out []Matchup
	for _, m := range b.Matchups {
		if !m.Resolved() {
			out = append(out, m)
		}
	}
	return out
}

// Conference returns the matchups of one conference in bracket order.
func (b Bracket) Conference(id ConferenceID) []Matchup {
	var out []Matchup
	for _, m := range b.Matchups {
		if m.Conference == id {
			out = append(out, m)
		}
	}
	return out
}

// Teams returns every team appearing in the bracket.
func (b Bracket) Teams() map[TeamID]bool {
	out := make(map[TeamID]bool, 2*len(b.Matchups))
	for _, m := range b.Matchups {
		out[m.Home] = true
		out[m.Away] = true
	}
	return out
}
