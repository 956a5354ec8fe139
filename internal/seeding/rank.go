package seeding

import (
	"sort"
	"strings"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

// Rank orders teams best first: win percentage, then the calculator's tiebreak chain.
// The input slice is not modified.
func (c *Calculator) Rank(teams []playoff.TeamRecord, h2h playoff.HeadToHead) []playoff.TeamRecord {
	sorted := make([]playoff.TeamRecord, len(teams))
	copy(sorted, teams)

	var result []playoff.TeamRecord
	for _, group := range groupBy(sorted, compareWinPct) {
		result = append(result, c.breakTies(group, 0, h2h)...)
	}
	return result
}

// breakTies applies the chain level by level to a group tied on every earlier level.
func (c *Calculator) breakTies(group []playoff.TeamRecord, level int, h2h playoff.HeadToHead) []playoff.TeamRecord {
	if len(group) <= 1 || level >= len(c.order) {
		return group
	}

	var groups [][]playoff.TeamRecord
	switch c.order[level] {
	case TiebreakerHeadToHead:
		groups = headToHeadGroups(group, h2h)
	case TiebreakerDivisionRecord:
		groups = groupBy(group, func(a, b playoff.TeamRecord) int {
			return a.DivisionRecord.ComparePct(b.DivisionRecord)
		})
	case TiebreakerConferenceRecord:
		groups = groupBy(group, func(a, b playoff.TeamRecord) int {
			return a.ConferenceRecord.ComparePct(b.ConferenceRecord)
		})
	case TiebreakerPointDifferential:
		groups = groupBy(group, func(a, b playoff.TeamRecord) int {
			return compareInts(a.PointDifferential(), b.PointDifferential())
		})
	case TiebreakerTeamID:
		groups = groupBy(group, func(a, b playoff.TeamRecord) int {
			// lower id ranks higher
			return -strings.Compare(string(a.TeamID), string(b.TeamID))
		})
	default:
		groups = [][]playoff.TeamRecord{group}
	}

	var result []playoff.TeamRecord
	for _, g := range groups {
		result = append(result, c.breakTies(g, level+1, h2h)...)
	}
	return result
}

// headToHeadGroups ranks a tied group as a mini-league of the games they played against
// each other. Groups where some pair never met skip the step unchanged.
func headToHeadGroups(group []playoff.TeamRecord, h2h playoff.HeadToHead) [][]playoff.TeamRecord {
	if len(h2h) == 0 || !hasCompleteHeadToHead(group, h2h) {
		return [][]playoff.TeamRecord{group}
	}

	mini := make(map[playoff.TeamID]playoff.Record, len(group))
	for _, a := range group {
		var rec playoff.Record
		for _, b := range group {
			if a.TeamID == b.TeamID {
				continue
			}
			rec.Wins += h2h.Wins(a.TeamID, b.TeamID)
			rec.Losses += h2h.Wins(b.TeamID, a.TeamID)
		}
		mini[a.TeamID] = rec
	}

	return groupBy(group, func(a, b playoff.TeamRecord) int {
		return mini[a.TeamID].ComparePct(mini[b.TeamID])
	})
}

// hasCompleteHeadToHead reports whether every pair in the group has a decided meeting.
func hasCompleteHeadToHead(group []playoff.TeamRecord, h2h playoff.HeadToHead) bool {
	for i := range group {
		for j := i + 1; j < len(group); j++ {
			if !h2h.Played(group[i].TeamID, group[j].TeamID) {
				return false
			}
		}
	}
	return true
}

// groupBy sorts teams best first by cmp (1 means a is better) and splits them into runs of equal value.
func groupBy(teams []playoff.TeamRecord, cmp func(a, b playoff.TeamRecord) int) [][]playoff.TeamRecord {
	if len(teams) == 0 {
		return nil
	}
	sorted := make([]playoff.TeamRecord, len(teams))
	copy(sorted, teams)
	sort.SliceStable(sorted, func(i, j int) bool {
		return cmp(sorted[i], sorted[j]) > 0
	})

	var groups [][]playoff.TeamRecord
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || cmp(sorted[start], sorted[i]) != 0 {
			groups = append(groups, sorted[start:i])
			start = i
		}
	}
	return groups
}

func compareWinPct(a, b playoff.TeamRecord) int {
	return a.Overall().ComparePct(b.Overall())
}

func compareInts(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
