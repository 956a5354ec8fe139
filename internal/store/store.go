// Package store persists tournaments as their seedings plus an append-only event log.
// A result and any advance it triggers are appended together, so a stored tournament is
// never half-advanced.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/tournament"
)

var (
	ErrNotFound        = errors.New("tournament not found")
	ErrExists          = errors.New("tournament already exists")
	ErrVersionConflict = errors.New("tournament version conflict")
)

// Record is the durable form of a tournament.
type Record struct {
	ID        string                      `json:"id" bson:"_id"`
	Season    string                      `json:"season,omitempty" bson:"season,omitempty"`
	Seedings  []playoff.ConferenceSeeding `json:"seedings" bson:"seedings"`
	Events    []tournament.Event          `json:"events" bson:"events"`
	Version   int                         `json:"version" bson:"version"`
	CreatedAt time.Time                   `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at" bson:"updated_at"`
}

// Store is implemented by MemoryStore and MongoStore.
type Store interface {
	// Create stores a new tournament. It fails with ErrExists if the id is taken.
	Create(ctx context.Context, rec Record) error
	// Load returns the stored tournament or ErrNotFound.
	Load(ctx context.Context, id string) (Record, error)
	// Append adds events atomically if the stored version equals expectedVersion and
	// returns the new version. A mismatch fails with ErrVersionConflict and stores nothing.
	Append(ctx context.Context, id string, expectedVersion int, events []tournament.Event) (int, error)
	// List returns stored tournament ids, oldest first.
	List(ctx context.Context) ([]string, error)
	Close(ctx context.Context) error
}

// NewRecord captures a freshly started tournament.
func NewRecord(t *tournament.Tournament, season string) Record {
	now := time.Now().UTC()
	events := t.Events()
	if events == nil {
		events = []tournament.Event{}
	}
	return Record{
		ID:        t.ID(),
		Season:    season,
		Seedings:  t.Seedings(),
		Events:    events,
		Version:   t.Version(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Open loads a tournament and rebuilds it from its event log.
func Open(ctx context.Context, s Store, id string, opts ...tournament.Option) (*tournament.Tournament, error) {
	rec, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Version != len(rec.Events) {
		return nil, playoff.Errorf(playoff.KindStateCorruption, "stored version disagrees with event count").
			WithCounts(len(rec.Events), rec.Version)
	}
	return tournament.Restore(rec.ID, rec.Seedings, rec.Events, opts...)
}

// Save appends everything the tournament accepted after version stored and returns the
// tournament's version.
func Save(ctx context.Context, s Store, t *tournament.Tournament, stored int) (int, error) {
	events := t.EventsSince(stored)
	if len(events) == 0 {
		return stored, nil
	}
	version, err := s.Append(ctx, t.ID(), stored, events)
	if err != nil {
		return stored, fmt.Errorf("failed to persist tournament %s: %w", t.ID(), err)
	}
	if version != t.Version() {
		return version, playoff.Errorf(playoff.KindStateCorruption, "stored version disagrees with tournament").
			WithCounts(t.Version(), version)
	}
	return version, nil
}
