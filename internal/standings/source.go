// Package standings loads the finalized regular season that seeds a tournament.
package standings

import (
	"context"
	"fmt"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

// Source supplies a standings snapshot.
type Source interface {
	Fetch(ctx context.Context) (*playoff.Snapshot, error)
}

// SourceError reports a standings feed that could not be read or returned bad data.
type SourceError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Season     string `json:"season,omitempty"`
}

func (e *SourceError) Error() string {
	return e.Message
}

// checkSnapshot rejects snapshots that cannot be seeded at all. Detailed validation
// happens in the seeding calculator.
func checkSnapshot(s *playoff.Snapshot) error {
	if s == nil || len(s.Teams) == 0 {
		return &SourceError{Type: "empty_snapshot", Message: "standings snapshot has no teams"}
	}
	for i, t := range s.Teams {
		if t.TeamID == "" {
			return &SourceError{
				Type:    "invalid_snapshot",
				Message: fmt.Sprintf("standings entry %d has no team id", i),
				Season:  s.Season,
			}
		}
	}
	return nil
}
