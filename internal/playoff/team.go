package playoff

import (
	"sort"
)

// TeamID identifies a team, e.g. "KC".
type TeamID string

// ConferenceID identifies a conference, e.g. "AFC".
type ConferenceID string

// DivisionID identifies a division, e.g. "AFC West".
type DivisionID string

// Record is a won-lost-tied line.
type Record struct {
	Wins   int `json:"wins" yaml:"wins" bson:"wins"`
	Losses int `json:"losses" yaml:"losses" bson:"losses"`
	Ties   int `json:"ties" yaml:"ties" bson:"ties"`
}

// Games returns the number of games in the record.
func (r Record) Games() int {
	return r.Wins + r.Losses + r.Ties
}

// Pct returns (wins + ties/2) / games, or 0 when no games were played.
func (r Record) Pct() float64 {
	g := r.Games()
	if g == 0 {
		return 0
	}
	return (float64(r.Wins) + 0.5*float64(r.Ties)) / float64(g)
}

// ComparePct compares two records by win percentage without floating point rounding.
// It returns 1 when r is better, -1 when worse and 0 when equal.
func (r Record) ComparePct(o Record) int {
	// (2w+t)/2g compared by cross multiplication; an empty record counts as .000
	rn, rd := int64(2*r.Wins+r.Ties), int64(2*r.Games())
	on, od := int64(2*o.Wins+o.Ties), int64(2*o.Games())
	if rd == 0 {
		rn, rd = 0, 1
	}
	if od == 0 {
		on, od = 0, 1
	}
	lhs, rhs := rn*od, on*rd
	switch {
	case lhs > rhs:
		return 1
	case lhs < rhs:
		return -1
	default:
		return 0
	}
}

// TeamRecord is one team's regular-season line. It is never mutated after the snapshot is taken.
type TeamRecord struct {
	TeamID           TeamID       `json:"team_id" yaml:"team_id" bson:"team_id"`
	Wins             int          `json:"wins" yaml:"wins" bson:"wins"`
	Losses           int          `json:"losses" yaml:"losses" bson:"losses"`
	Ties             int          `json:"ties" yaml:"ties" bson:"ties"`
	PointsFor        int          `json:"points_for" yaml:"points_for" bson:"points_for"`
	PointsAgainst    int          `json:"points_against" yaml:"points_against" bson:"points_against"`
	Division         DivisionID   `json:"division" yaml:"division" bson:"division"`
	Conference       ConferenceID `json:"conference" yaml:"conference" bson:"conference"`
	DivisionRecord   Record       `json:"division_record" yaml:"division_record" bson:"division_record"`
	ConferenceRecord Record       `json:"conference_record" yaml:"conference_record" bson:"conference_record"`
}

// Overall returns the team's full season record.
func (t TeamRecord) Overall() Record {
	return Record{Wins: t.Wins, Losses: t.Losses, Ties: t.Ties}
}

// WinPct returns the overall win percentage.
func (t TeamRecord) WinPct() float64 {
	return t.Overall().Pct()
}

// PointDifferential returns points for minus points against.
func (t TeamRecord) PointDifferential() int {
	return t.PointsFor - t.PointsAgainst
}

// HeadToHead holds regular-season wins between teams: HeadToHead[a][b] is the number of
// games a won against b. Missing entries count as zero.
type HeadToHead map[TeamID]map[TeamID]int

// Wins returns how many times a beat b.
func (h HeadToHead) Wins(a, b TeamID) int {
	if h == nil {
		return 0
	}
	return h[a][b]
}

// Played reports whether a and b met at least once with a decision.
func (h HeadToHead) Played(a, b TeamID) bool {
	return h.Wins(a, b) > 0 || h.Wins(b, a) > 0
}

// Snapshot is the finalized regular season handed to the engine at tournament start.
type Snapshot struct {
	Season     string       `json:"season,omitempty" yaml:"season,omitempty" bson:"season,omitempty"`
	Teams      []TeamRecord `json:"teams" yaml:"teams" bson:"teams"`
	HeadToHead HeadToHead   `json:"head_to_head,omitempty" yaml:"head_to_head,omitempty" bson:"head_to_head,omitempty"`
}

// Conferences returns the conference ids present in the snapshot in sorted order.
func (s *Snapshot) Conferences() []ConferenceID {
	seen := make(map[ConferenceID]bool)
	var out []ConferenceID
	for _, t := range s.Teams {
		if !seen[t.Conference] {
			seen[t.Conference] = true
			out = append(out, t.Conference)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Conference returns the teams of one conference in snapshot order.
func (s *Snapshot) Conference(id ConferenceID) []TeamRecord {
	var out []TeamRecord
	for _, t := range s.Teams {
		if t.Conference == id {
			out = append(out, t)
		}
	}
	return out
}
