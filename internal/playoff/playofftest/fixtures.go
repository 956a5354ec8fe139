// Package playofftest provides league fixtures shared by engine tests.
package playofftest

import (
	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

const gamesPerSeason = 17

type line struct {
	id   playoff.TeamID
	div  playoff.DivisionID
	wins int
}

// Every team in a conference has a distinct win total, so seeding never reaches a tiebreaker.
var afc = []line{
	{"BUF", "AFC East", 13}, {"MIA", "AFC East", 7}, {"NYJ", "AFC East", 5}, {"NE", "AFC East", 2},
	{"BAL", "AFC North", 12}, {"PIT", "AFC North", 11}, {"CIN", "AFC North", 8}, {"CLE", "AFC North", 1},
	{"HOU", "AFC South", 9}, {"IND", "AFC South", 6}, {"JAX", "AFC South", 4}, {"TEN", "AFC South", 0},
	{"KC", "AFC West", 15}, {"LAC", "AFC West", 14}, {"DEN", "AFC West", 10}, {"LV", "AFC West", 3},
}

var nfc = []line{
	{"PHI", "NFC East", 14}, {"WAS", "NFC East", 12}, {"DAL", "NFC East", 5}, {"NYG", "NFC East", 0},
	{"DET", "NFC North", 15}, {"MIN", "NFC North", 13}, {"GB", "NFC North", 9}, {"CHI", "NFC North", 4},
	{"TB", "NFC South", 11}, {"ATL", "NFC South", 7}, {"NO", "NFC South", 2}, {"CAR", "NFC South", 1},
	{"LAR", "NFC West", 10}, {"SEA", "NFC West", 8}, {"ARI", "NFC West", 6}, {"SF", "NFC West", 3},
}

// AFCSeeds and NFCSeeds are the expected seedings of the fixtures, seed 1 first.
var (
	AFCSeeds = []playoff.TeamID{"KC", "BUF", "BAL", "HOU", "LAC", "PIT", "DEN"}
	NFCSeeds = []playoff.TeamID{"DET", "PHI", "TB", "LAR", "MIN", "WAS", "GB"}
)

// Team builds a record with derived points and sub-records.
func Team(id playoff.TeamID, conf playoff.ConferenceID, div playoff.DivisionID, wins, losses, ties int) playoff.TeamRecord {
	divWins := wins * 6 / gamesPerSeason
	confWins := wins * 12 / gamesPerSeason
	return playoff.TeamRecord{
		TeamID:           id,
		Wins:             wins,
		Losses:           losses,
		Ties:             ties,
		PointsFor:        300 + 10*wins,
		PointsAgainst:    470 - 10*wins,
		Division:         div,
		Conference:       conf,
		DivisionRecord:   playoff.Record{Wins: divWins, Losses: 6 - divWins},
		ConferenceRecord: playoff.Record{Wins: confWins, Losses: 12 - confWins},
	}
}

func build(conf playoff.ConferenceID, lines []line) []playoff.TeamRecord {
	out := make([]playoff.TeamRecord, 0, len(lines))
	for _, l := range lines {
		out = append(out, Team(l.id, conf, l.div, l.wins, gamesPerSeason-l.wins, 0))
	}
	return out
}

// AFC returns the sixteen AFC records.
func AFC() []playoff.TeamRecord { return build("AFC", afc) }

// NFC returns the sixteen NFC records.
func NFC() []playoff.TeamRecord { return build("NFC", nfc) }

// Snapshot returns a full league snapshot.
func Snapshot() *playoff.Snapshot {
	return &playoff.Snapshot{
		Season: "2024",
		Teams:  append(AFC(), NFC()...),
	}
}

// Seeding builds a valid conference seeding from teams listed seed 1 first.
func Seeding(conf playoff.ConferenceID, teams ...playoff.TeamID) playoff.ConferenceSeeding {
	s := playoff.ConferenceSeeding{Conference: conf}
	for i, id := range teams {
		s.Seeds = append(s.Seeds, playoff.Seed{
			Conference:     conf,
			Number:         i + 1,
			TeamID:         id,
			DivisionWinner: i < playoff.DivisionWinners,
		})
	}
	return s
}

// Seedings returns the expected seedings of both fixture conferences.
func Seedings() []playoff.ConferenceSeeding {
	return []playoff.ConferenceSeeding{
		Seeding("AFC", AFCSeeds...),
		Seeding("NFC", NFCSeeds...),
	}
}

// HomeWins returns the home team of every matchup as its winner.
func HomeWins(b playoff.Bracket) map[string]playoff.TeamID {
	out := make(map[string]playoff.TeamID, len(b.Matchups))
	for _, m := range b.Matchups {
		out[m.ID] = m.Home
	}
	return out
}

// AwayWins returns the away team of every matchup as its winner.
func AwayWins(b playoff.Bracket) map[string]playoff.TeamID {
	out := make(map[string]playoff.TeamID, len(b.Matchups))
	for _, m := range b.Matchups {
		out[m.ID] = m.Away
	}
	return out
}

// Resolve returns a copy of b with winners applied by matchup id.
func Resolve(b playoff.Bracket, winners map[string]playoff.TeamID) playoff.Bracket {
	out := b.Clone()
	for i := range out.Matchups {
		if w, ok := winners[out.Matchups[i].ID]; ok {
			out.Matchups[i].Winner = w
		}
	}
	return out
}
