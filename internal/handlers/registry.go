package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/runner"
	"github.com/sam-maryland/nfl-playoff-engine/internal/store"
	"github.com/sam-maryland/nfl-playoff-engine/internal/tournament"
)

// Registry holds the tournaments served by the MCP tools. Calls for one tournament are
// serialized; calls for different tournaments run concurrently.
type Registry struct {
	store  store.Store
	logger *logrus.Logger
	newID  func() string

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	t       *tournament.Tournament // nil until loaded
	version int                    // persisted version of t
}

// NewRegistry creates a registry backed by st
func NewRegistry(st store.Store, logger *logrus.Logger) *Registry {
	return &Registry{
		store:   st,
		logger:  logger,
		newID:   uuid.NewString,
		entries: make(map[string]*entry),
	}
}

// Create starts a tournament from both conference seedings and persists it
func (r *Registry) Create(ctx context.Context, seedings []playoff.ConferenceSeeding, season string) (tournament.Summary, error) {
	t, err := tournament.New(r.newID(), seedings, r.observer())
	if err != nil {
		return tournament.Summary{}, err
	}
	if err := r.store.Create(ctx, store.NewRecord(t, season)); err != nil {
		return tournament.Summary{}, fmt.Errorf("failed to store tournament %s: %w", t.ID(), err)
	}

	r.mu.Lock()
	r.entries[t.ID()] = &entry{t: t, version: t.Version()}
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"tournament_id": t.ID(),
		"season":        season,
	}).Info("Started tournament")
	return t.Summary(), nil
}

// With runs fn against the tournament while holding its lock, then persists whatever fn
// accepted. A failed save drops the cached copy so the next caller reloads from the store.
func (r *Registry) With(ctx context.Context, id string, fn func(t *tournament.Tournament) error) error {
	e, err := r.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	fnErr := fn(e.t)

	version, err := store.Save(ctx, r.store, e.t, e.version)
	if err != nil {
		e.t = nil
		tournament.LogError(r.logger, id, err)
		return err
	}
	e.version = version
	return fnErr
}

// Drive plays the tournament to completion with rn while holding its lock
func (r *Registry) Drive(ctx context.Context, id string, rn *runner.Runner) (tournament.Summary, error) {
	e, err := r.acquire(ctx, id)
	if err != nil {
		return tournament.Summary{}, err
	}
	defer e.mu.Unlock()

	version, err := rn.Drive(ctx, e.t, e.version)
	e.version = version
	if err != nil {
		// the tournament may hold results the store never accepted
		summary := e.t.Summary()
		if version != e.t.Version() {
			e.t = nil
		}
		return summary, err
	}
	return e.t.Summary(), nil
}

// acquire returns the locked entry for id, loading it from the store on first use
func (r *Registry) acquire(ctx context.Context, id string) (*entry, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	if e.t != nil {
		return e, nil
	}

	t, err := store.Open(ctx, r.store, id, r.observer())
	if err != nil {
		e.mu.Unlock()
		if errors.Is(err, store.ErrNotFound) {
			r.forget(id, e)
		}
		return nil, err
	}
	e.t = t
	e.version = t.Version()
	return e, nil
}

func (r *Registry) forget(id string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[id] == e {
		delete(r.entries, id)
	}
}

// List returns the ids of every stored tournament
func (r *Registry) List(ctx context.Context) ([]string, error) {
	return r.store.List(ctx)
}

func (r *Registry) observer() tournament.Option {
	return tournament.WithObserver(tournament.NewLogObserver(r.logger))
}
