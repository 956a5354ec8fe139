// Package runner coordinates tournaments with an external game source: it asks for the
// outcome of each pending matchup, records it, advances when a round resolves, and persists
// both as one unit. Each tournament is driven by a single goroutine.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/seeding"
	"github.com/sam-maryland/nfl-playoff-engine/internal/store"
	"github.com/sam-maryland/nfl-playoff-engine/internal/tournament"
)

// Outcome is a finished game reported by a GameSource.
type Outcome struct {
	Winner playoff.TeamID
	Score  *playoff.Score
}

// GameSource produces the result of a pending matchup. An error means no game could be
// produced this time; the runner retries and the tournament is not touched.
type GameSource interface {
	Play(ctx context.Context, tournamentID string, m playoff.Matchup) (Outcome, error)
}

// GameSourceFunc adapts a function to GameSource.
type GameSourceFunc func(ctx context.Context, tournamentID string, m playoff.Matchup) (Outcome, error)

func (f GameSourceFunc) Play(ctx context.Context, tournamentID string, m playoff.Matchup) (Outcome, error) {
	return f(ctx, tournamentID, m)
}

// Config controls retries and parallelism.
type Config struct {
	MaxAttempts int           // per matchup before a scheduling failure is returned
	RetryDelay  time.Duration // wait between attempts
	MaxParallel int           // tournaments driven at once by RunAll
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, RetryDelay: 250 * time.Millisecond, MaxParallel: 4}
}

// Runner drives tournaments stored in a store.Store.
type Runner struct {
	store      store.Store
	games      GameSource
	calculator *seeding.Calculator
	logger     *logrus.Logger
	cfg        Config
	newID      func() string
}

func New(st store.Store, games GameSource, calculator *seeding.Calculator, logger *logrus.Logger, cfg Config) *Runner {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = def.MaxParallel
	}
	if calculator == nil {
		calculator = seeding.NewCalculator()
	}
	return &Runner{
		store:      st,
		games:      games,
		calculator: calculator,
		logger:     logger,
		cfg:        cfg,
		newID:      uuid.NewString,
	}
}

// Start seeds a new tournament from the snapshot and stores it.
func (r *Runner) Start(ctx context.Context, snapshot *playoff.Snapshot) (*tournament.Tournament, error) {
	seedings, err := r.calculator.ComputeAll(snapshot)
	if err != nil {
		return nil, err
	}

	t, err := tournament.New(r.newID(), seedings, tournament.WithObserver(tournament.NewLogObserver(r.logger)))
	if err != nil {
		return nil, err
	}
	if err := r.store.Create(ctx, store.NewRecord(t, snapshot.Season)); err != nil {
		return nil, fmt.Errorf("failed to store tournament %s: %w", t.ID(), err)
	}

	r.logger.WithFields(logrus.Fields{
		"tournament_id": t.ID(),
		"season":        snapshot.Season,
	}).Info("Started tournament")
	return t, nil
}

// Run restores a tournament from the store and drives it to completion.
func (r *Runner) Run(ctx context.Context, id string) (tournament.Summary, error) {
	t, err := store.Open(ctx, r.store, id, tournament.WithObserver(tournament.NewLogObserver(r.logger)))
	if err != nil {
		tournament.LogError(r.logger, id, err)
		return tournament.Summary{}, err
	}
	if _, err := r.Drive(ctx, t, t.Version()); err != nil {
		return t.Summary(), err
	}
	return t.Summary(), nil
}

// Drive steps t until it completes. stored is the version already persisted. It returns the
// persisted version.
func (r *Runner) Drive(ctx context.Context, t *tournament.Tournament, stored int) (int, error) {
	for !t.Complete() {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		version, err := r.Step(ctx, t, stored)
		if err != nil {
			tournament.LogError(r.logger, t.ID(), err)
			return version, err
		}
		if version == stored {
			return stored, playoff.Errorf(playoff.KindSchedulingFailure, "no pending matchup produced a usable result").
				InRound(t.Round())
		}
		stored = version
	}
	return stored, nil
}

// Step plays every pending matchup of the active round once. Each accepted result, plus the
// advance it may trigger, is saved before the next game is requested.
func (r *Runner) Step(ctx context.Context, t *tournament.Tournament, stored int) (int, error) {
	// a restored tournament may hold a resolved round that was never advanced
	if _, err := t.TryAdvance(); err != nil {
		return stored, err
	}
	stored, err := store.Save(ctx, r.store, t, stored)
	if err != nil {
		return stored, err
	}

	for _, m := range t.PendingMatchups() {
		outcome, err := r.play(ctx, t.ID(), m)
		if err != nil {
			return stored, err
		}

		if err := t.RecordResult(m.Round, m.ID, outcome.Winner, outcome.Score); err != nil {
			if kind, ok := playoff.KindOf(err); ok && kind.Recovery() == playoff.RecoveryIgnore {
				tournament.LogError(r.logger, t.ID(), err)
				continue
			}
			return stored, err
		}
		if _, err := t.TryAdvance(); err != nil {
			return stored, err
		}
		if stored, err = store.Save(ctx, r.store, t, stored); err != nil {
			return stored, err
		}
	}
	return stored, nil
}

// play asks the game source for an outcome, retrying failures up to MaxAttempts.
func (r *Runner) play(ctx context.Context, id string, m playoff.Matchup) (Outcome, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		outcome, err := r.games.Play(ctx, id, m)
		if err == nil {
			return outcome, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		lastErr = err

		r.logger.WithError(err).WithFields(logrus.Fields{
			"tournament_id": id,
			"matchup_id":    m.ID,
			"attempt":       attempt,
		}).Warn("Game source could not produce a result")

		if attempt < r.cfg.MaxAttempts && r.cfg.RetryDelay > 0 {
			timer := time.NewTimer(r.cfg.RetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Outcome{}, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return Outcome{}, playoff.Errorf(playoff.KindSchedulingFailure, "no game after %d attempts", r.cfg.MaxAttempts).
		InRound(m.Round).
		WithMatchup(m.ID).
		WithTeams(m.Home, m.Away).
		Wrap(lastErr)
}

// RunAll drives several stored tournaments concurrently, at most MaxParallel at a time and
// one goroutine per tournament. The first failure cancels the rest.
func (r *Runner) RunAll(ctx context.Context, ids ...string) (map[string]tournament.Summary, error) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxParallel)

	var (
		mu        sync.Mutex
		summaries = make(map[string]tournament.Summary, len(ids))
	)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			summary, err := r.Run(gCtx, id)
			if err != nil {
				return fmt.Errorf("tournament %s: %w", id, err)
			}
			mu.Lock()
			summaries[id] = summary
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summaries, err
	}
	return summaries, nil
}

// Resume drives every stored tournament that has not finished.
func (r *Runner) Resume(ctx context.Context) (map[string]tournament.Summary, error) {
	ids, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, id := range ids {
		t, err := store.Open(ctx, r.store, id)
		if err != nil {
			if errors.Is(err, playoff.ErrStateCorruption) {
				tournament.LogError(r.logger, id, err)
				continue
			}
			return nil, err
		}
		if !t.Complete() {
			pending = append(pending, id)
		}
	}
	return r.RunAll(ctx, pending...)
}
