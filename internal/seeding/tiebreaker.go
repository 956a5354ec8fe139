package seeding

import (
	"fmt"
	"strings"
)

// Tiebreaker is one step of the ranking chain applied after win percentage.
type Tiebreaker int

const (
	TiebreakerHeadToHead Tiebreaker = iota + 1
	TiebreakerDivisionRecord
	TiebreakerConferenceRecord
	TiebreakerPointDifferential
	// TiebreakerTeamID orders by ascending team id. It always closes the chain.
	TiebreakerTeamID
)

// DefaultOrder is the standard chain between win percentage and the team id fallback.
var DefaultOrder = []Tiebreaker{
	TiebreakerHeadToHead,
	TiebreakerDivisionRecord,
	TiebreakerConferenceRecord,
	TiebreakerPointDifferential,
}

var tiebreakerNames = map[Tiebreaker]string{
	TiebreakerHeadToHead:        "head_to_head",
	TiebreakerDivisionRecord:    "division_record",
	TiebreakerConferenceRecord:  "conference_record",
	TiebreakerPointDifferential: "point_differential",
	TiebreakerTeamID:            "team_id",
}

func (t Tiebreaker) String() string {
	if name, ok := tiebreakerNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tiebreaker(%d)", int(t))
}

// ParseTiebreaker converts a configured name into a Tiebreaker.
func ParseTiebreaker(name string) (Tiebreaker, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for t, n := range tiebreakerNames {
		if n == normalized {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tiebreaker %q", name)
}

// ParseOrder converts configured names into a chain, rejecting unknown and repeated entries.
func ParseOrder(names []string) ([]Tiebreaker, error) {
	order := make([]Tiebreaker, 0, len(names))
	seen := make(map[Tiebreaker]bool)
	for _, name := range names {
		t, err := ParseTiebreaker(name)
		if err != nil {
			return nil, err
		}
		if seen[t] {
			return nil, fmt.Errorf("tiebreaker %q listed more than once", name)
		}
		seen[t] = true
		order = append(order, t)
	}
	return order, nil
}

// normalizeOrder removes duplicates and guarantees the chain ends with the team id fallback.
func normalizeOrder(order []Tiebreaker) []Tiebreaker {
	if len(order) == 0 {
		order = DefaultOrder
	}
	out := make([]Tiebreaker, 0, len(order)+1)
	seen := make(map[Tiebreaker]bool)
	for _, t := range order {
		if seen[t] || t == TiebreakerTeamID {
			continue
		}
		if _, ok := tiebreakerNames[t]; !ok {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return append(out, TiebreakerTeamID)
}
