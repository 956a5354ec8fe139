package tournament

import (
	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

// EventType names a journal entry.
type EventType string

const (
	EventResult  EventType = "result"
	EventAdvance EventType = "advance"
)

// Event is one accepted mutation. Replaying a tournament's events in order against the same
// seedings rebuilds the same state.
type Event struct {
	Type      EventType      `json:"type" bson:"type"`
	Round     playoff.Round  `json:"round" bson:"round"` // for EventAdvance, the round advanced from
	MatchupID string         `json:"matchup_id,omitempty" bson:"matchup_id,omitempty"`
	Winner    playoff.TeamID `json:"winner_team_id,omitempty" bson:"winner,omitempty"`
	Score     *playoff.Score `json:"final_score,omitempty" bson:"score,omitempty"`
}

// Version is the number of events accepted so far.
func (t *Tournament) Version() int { return len(t.journal) }

// Events returns the full journal.
func (t *Tournament) Events() []Event {
	return t.EventsSince(0)
}

// EventsSince returns the events accepted after the first version events.
func (t *Tournament) EventsSince(version int) []Event {
	if version < 0 {
		version = 0
	}
	if version >= len(t.journal) {
		return nil
	}
	out := make([]Event, 0, len(t.journal)-version)
	for _, e := range t.journal[version:] {
		e.Score = copyScore(e.Score)
		out = append(out, e)
	}
	return out
}

// Restore rebuilds a tournament by replaying events on a fresh wild card bracket. Any event
// that is rejected, or a replay that ends in an inconsistent state, is reported as
// tournament state corruption; the caller should fall back to an earlier durable copy.
// The observer is installed only after replay so restored history is not re-announced.
func Restore(id string, seedings []playoff.ConferenceSeeding, events []Event, opts ...Option) (*Tournament, error) {
	t, err := New(id, seedings)
	if err != nil {
		return nil, playoff.Errorf(playoff.KindStateCorruption, "stored seedings rejected").Wrap(err)
	}

	for i, e := range events {
		if err := t.replay(e); err != nil {
			return nil, playoff.Errorf(playoff.KindStateCorruption, "event %d (%s) does not replay", i, e.Type).
				InRound(e.Round).
				WithMatchup(e.MatchupID).
				Wrap(err)
		}
	}
	if err := t.Verify(); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Tournament) replay(e Event) error {
	switch e.Type {
	case EventResult:
		return t.RecordResult(e.Round, e.MatchupID, e.Winner, e.Score)
	case EventAdvance:
		if e.Round != t.round {
			return playoff.Errorf(playoff.KindStateCorruption, "advance from %s while %s is active", e.Round, t.round).
				InRound(e.Round)
		}
		adv, err := t.TryAdvance()
		if err != nil {
			return err
		}
		if !adv.Ready {
			return playoff.Errorf(playoff.KindStateCorruption, "advance recorded before the round resolved").
				InRound(e.Round)
		}
		return nil
	default:
		return playoff.Errorf(playoff.KindStateCorruption, "unknown event type %q", e.Type)
	}
}

func copyScore(s *playoff.Score) *playoff.Score {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
