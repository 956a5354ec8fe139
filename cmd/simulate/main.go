package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sam-maryland/nfl-playoff-engine/internal/config"
	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/runner"
	"github.com/sam-maryland/nfl-playoff-engine/internal/standings"
	"github.com/sam-maryland/nfl-playoff-engine/internal/store"
	"github.com/sam-maryland/nfl-playoff-engine/internal/tournament"
)

func main() {
	count := flag.Int("count", 1, "number of tournaments to start and play")
	resume := flag.Bool("resume", false, "finish stored tournaments instead of starting new ones")
	league := flag.String("league", "", "league whose tiebreak order seeds the field")
	winnersFile := flag.String("winners", "", "YAML file mapping matchup IDs to winning team IDs")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load engine settings")
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store = store.NewMemoryStore()
	if cfg.Store.Backend == config.BackendMongo {
		mongoStore, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open tournament store")
		}
		st = mongoStore
	}
	defer st.Close(context.Background())

	games, err := loadGames(*winnersFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load winners file")
	}
	calculator, err := cfg.Calculator(*league)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build seeding calculator")
	}
	rn := runner.New(st, games, calculator, logger, cfg.RunnerConfig())

	var summaries map[string]tournament.Summary
	if *resume {
		summaries, err = rn.Resume(ctx)
	} else {
		summaries, err = startAndRun(ctx, rn, cfg, logger, *count)
	}
	report(logger, summaries)
	if err != nil {
		logger.WithError(err).Error("Simulation failed")
		os.Exit(1)
	}
}

func startAndRun(ctx context.Context, rn *runner.Runner, cfg *config.EngineConfig, logger *logrus.Logger, count int) (map[string]tournament.Summary, error) {
	var source standings.Source
	switch {
	case cfg.Standings.File != "":
		source = standings.NewFileSource(cfg.Standings.File, logger)
	case cfg.Standings.URL != "":
		source = standings.NewHTTPSource(cfg.Standings.URL, cfg.Standings.Season, cfg.Standings.RequestsPerSecond, logger)
	default:
		logger.Fatal("Set standings.file or standings.url (PLAYOFF_STANDINGS_FILE / PLAYOFF_STANDINGS_URL)")
	}

	snapshot, err := source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		t, err := rn.Start(ctx, snapshot)
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID())
	}
	return rn.RunAll(ctx, ids...)
}

func loadGames(path string) (runner.GameSource, error) {
	if path == "" {
		return runner.Favorites{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var winners map[string]playoff.TeamID
	if err := yaml.Unmarshal(data, &winners); err != nil {
		return nil, err
	}
	return runner.Scripted(winners), nil
}

func report(logger *logrus.Logger, summaries map[string]tournament.Summary) {
	ids := make([]string, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	titles := make(map[playoff.TeamID]int)
	for _, id := range ids {
		s := summaries[id]
		if s.IsComplete {
			titles[s.Champion]++
		}
		logger.WithFields(logrus.Fields{
			"tournament_id": s.ID,
			"round":         s.CurrentRound.String(),
			"games_played":  s.TotalGamesPlayed,
			"champion":      s.Champion,
		}).Info("Tournament result")
	}
	for team, n := range titles {
		logger.WithFields(logrus.Fields{"team": team, "titles": n}).Info("Champion tally")
	}
}
