package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/tournament"
)

// MemoryStore keeps records in process. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) Create(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.ID]; ok {
		return ErrExists
	}
	m.records[rec.ID] = copyRecord(rec)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (m *MemoryStore) Append(_ context.Context, id string, expectedVersion int, events []tournament.Event) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return 0, ErrNotFound
	}
	if rec.Version != expectedVersion {
		return rec.Version, ErrVersionConflict
	}

	rec = copyRecord(rec)
	rec.Events = append(rec.Events, copyEvents(events)...)
	rec.Version += len(events)
	rec.UpdatedAt = time.Now().UTC()
	m.records[id] = rec
	return rec.Version, nil
}

func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})

	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids, nil
}

func (m *MemoryStore) Close(context.Context) error { return nil }

func copyRecord(rec Record) Record {
	out := rec
	out.Seedings = make([]playoff.ConferenceSeeding, len(rec.Seedings))
	for i, s := range rec.Seedings {
		out.Seedings[i] = playoff.ConferenceSeeding{Conference: s.Conference, Seeds: append([]playoff.Seed(nil), s.Seeds...)}
	}
	out.Events = copyEvents(rec.Events)
	return out
}

func copyEvents(events []tournament.Event) []tournament.Event {
	out := make([]tournament.Event, len(events))
	for i, e := range events {
		if e.Score != nil {
			s := *e.Score
			e.Score = &s
		}
		out[i] = e
	}
	return out
}
