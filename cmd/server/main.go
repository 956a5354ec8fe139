package main

import (
	"context"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/nfl-playoff-engine/internal/config"
	"github.com/sam-maryland/nfl-playoff-engine/internal/handlers"
	"github.com/sam-maryland/nfl-playoff-engine/internal/mcp"
	"github.com/sam-maryland/nfl-playoff-engine/internal/standings"
	"github.com/sam-maryland/nfl-playoff-engine/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})
	// stdout carries the MCP protocol
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load engine settings")
	}
	logger.SetLevel(cfg.Level())

	ctx := context.Background()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open tournament store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.WithError(err).Warn("Failed to close tournament store")
		}
	}()

	checkStored(ctx, st, logger)

	tournamentHandler := handlers.NewTournamentHandler(
		handlers.NewRegistry(st, logger),
		standingsSource(cfg, logger),
		cfg,
		logger,
	)

	mcpServer := mcp.NewPlayoffMCPServer(tournamentHandler, logger)
	if mcpServer == nil {
		logger.Fatal("Failed to create MCP server")
	}

	logger.WithField("store", cfg.Store.Backend).Info("Starting NFL Playoff Engine MCP Server...")

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.WithError(err).Error("Server failed to start")
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.EngineConfig, logger *logrus.Logger) (store.Store, error) {
	if cfg.Store.Backend == config.BackendMongo {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return store.NewMongoStore(connectCtx, cfg.Store.MongoURI, cfg.Store.Database, logger)
	}
	return store.NewMemoryStore(), nil
}

func standingsSource(cfg *config.EngineConfig, logger *logrus.Logger) standings.Source {
	switch {
	case cfg.Standings.File != "":
		return standings.NewFileSource(cfg.Standings.File, logger)
	case cfg.Standings.URL != "":
		return standings.NewHTTPSource(cfg.Standings.URL, cfg.Standings.Season, cfg.Standings.RequestsPerSecond, logger)
	default:
		logger.Info("No standings source configured, tools require a snapshot argument")
		return nil
	}
}

// checkStored replays every stored tournament once at startup so corrupt logs surface early
func checkStored(ctx context.Context, st store.Store, logger *logrus.Logger) {
	ids, err := st.List(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to list stored tournaments")
		return
	}

	var pending int
	for _, id := range ids {
		t, err := store.Open(ctx, st, id)
		if err != nil {
			logger.WithError(err).WithField("tournament_id", id).Warn("Stored tournament does not replay")
			continue
		}
		if !t.Complete() {
			pending++
		}
	}
	logger.WithFields(logrus.Fields{
		"stored":      len(ids),
		"in_progress": pending,
	}).Info("Checked stored tournaments")
}
