package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/nfl-playoff-engine/internal/runner"
	"github.com/sam-maryland/nfl-playoff-engine/internal/seeding"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// SeedingSettings configures how a league breaks ties when seeding
type SeedingSettings struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	TiebreakOrder []string `json:"tiebreak_order"`
	Notes         string   `json:"notes"`
}

// StoreSettings selects where tournaments are persisted
type StoreSettings struct {
	Backend  string `json:"backend"`
	MongoURI string `json:"mongo_uri"`
	Database string `json:"database"`
}

// StandingsSettings locates the regular season snapshot
type StandingsSettings struct {
	File              string  `json:"file"`
	URL               string  `json:"url"`
	Season            string  `json:"season"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// RunnerSettings controls tournament simulation runs
type RunnerSettings struct {
	MaxParallel  int `json:"max_parallel"`
	MaxAttempts  int `json:"max_attempts"`
	RetryDelayMS int `json:"retry_delay_ms"`
}

// EngineConfig represents the entire engine configuration file
type EngineConfig struct {
	Instructions   string                     `json:"_instructions,omitempty"`
	LogLevel       string                     `json:"log_level"`
	Store          StoreSettings              `json:"store"`
	Standings      StandingsSettings          `json:"standings"`
	Runner         RunnerSettings             `json:"runner"`
	DefaultSeeding SeedingSettings            `json:"default_seeding"`
	Leagues        map[string]SeedingSettings `json:"leagues"`
}

var configPaths = []string{
	"configs/engine_settings.json",
	"../configs/engine_settings.json",
	"../../configs/engine_settings.json",
}

// Default returns the configuration used when no settings file is found
func Default() *EngineConfig {
	def := runner.DefaultConfig()
	names := make([]string, 0, len(seeding.DefaultOrder))
	for _, t := range seeding.DefaultOrder {
		names = append(names, t.String())
	}

	return &EngineConfig{
		LogLevel: "info",
		Store: StoreSettings{
			Backend:  BackendMemory,
			Database: "nfl_playoffs",
		},
		Standings: StandingsSettings{
			RequestsPerSecond: 2,
		},
		Runner: RunnerSettings{
			MaxParallel:  def.MaxParallel,
			MaxAttempts:  def.MaxAttempts,
			RetryDelayMS: int(def.RetryDelay / time.Millisecond),
		},
		DefaultSeeding: SeedingSettings{
			Name:          "NFL",
			Description:   "Standard conference seeding",
			TiebreakOrder: names,
			Notes:         "Lowest team id breaks any tie the chain leaves",
		},
		Leagues: make(map[string]SeedingSettings),
	}
}

// Load reads .env if present, then the first settings file found on the search path, then
// applies PLAYOFF_* environment overrides
func Load() (*EngineConfig, error) {
	_ = godotenv.Load()
	return LoadFrom(configPaths...)
}

// LoadFrom loads settings from the first existing path, falling back to defaults
func LoadFrom(paths ...string) (*EngineConfig, error) {
	var configData []byte
	var foundPath string

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			var readErr error
			configData, readErr = os.ReadFile(path)
			if readErr == nil {
				foundPath = path
				break
			}
		}
	}

	config := Default()
	if foundPath != "" {
		if err := json.Unmarshal(configData, config); err != nil {
			return nil, fmt.Errorf("failed to parse engine settings from %s: %w", foundPath, err)
		}
		if config.Leagues == nil {
			config.Leagues = make(map[string]SeedingSettings)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		if foundPath != "" {
			return nil, fmt.Errorf("invalid engine settings in %s: %w", foundPath, err)
		}
		return nil, err
	}
	return config, nil
}

func (c *EngineConfig) applyEnv() error {
	if v := os.Getenv("PLAYOFF_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PLAYOFF_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("PLAYOFF_MONGO_URI"); v != "" {
		c.Store.MongoURI = v
		if os.Getenv("PLAYOFF_STORE_BACKEND") == "" {
			c.Store.Backend = BackendMongo
		}
	}
	if v := os.Getenv("PLAYOFF_MONGO_DB"); v != "" {
		c.Store.Database = v
	}
	if v := os.Getenv("PLAYOFF_STANDINGS_URL"); v != "" {
		c.Standings.URL = v
	}
	if v := os.Getenv("PLAYOFF_STANDINGS_FILE"); v != "" {
		c.Standings.File = v
	}
	if v := os.Getenv("PLAYOFF_SEASON"); v != "" {
		c.Standings.Season = v
	}

	for name, dst := range map[string]*int{
		"PLAYOFF_MAX_PARALLEL": &c.Runner.MaxParallel,
		"PLAYOFF_MAX_ATTEMPTS": &c.Runner.MaxAttempts,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s environment variable: %w", name, err)
		}
		*dst = n
	}
	return nil
}

// Validate rejects settings the engine cannot run with
func (c *EngineConfig) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store: mongo backend requires mongo_uri")
		}
		if c.Store.Database == "" {
			return fmt.Errorf("store: mongo backend requires database")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}

	if c.Runner.MaxParallel < 1 {
		return fmt.Errorf("runner: max_parallel must be at least 1, got %d", c.Runner.MaxParallel)
	}
	if c.Runner.MaxAttempts < 1 {
		return fmt.Errorf("runner: max_attempts must be at least 1, got %d", c.Runner.MaxAttempts)
	}
	if c.Runner.RetryDelayMS < 0 {
		return fmt.Errorf("runner: retry_delay_ms cannot be negative")
	}

	if _, err := seeding.ParseOrder(c.DefaultSeeding.TiebreakOrder); err != nil {
		return fmt.Errorf("default_seeding: %w", err)
	}
	for id, league := range c.Leagues {
		if _, err := seeding.ParseOrder(league.TiebreakOrder); err != nil {
			return fmt.Errorf("leagues.%s: %w", id, err)
		}
	}
	return nil
}

// GetSeedingSettings returns settings for a specific league id
func (c *EngineConfig) GetSeedingSettings(leagueID string) SeedingSettings {
	if settings, exists := c.Leagues[leagueID]; exists {
		return settings
	}

	// Return default settings if league not found
	return c.DefaultSeeding
}

// Calculator builds the seeding calculator for a league
func (c *EngineConfig) Calculator(leagueID string) (*seeding.Calculator, error) {
	settings := c.GetSeedingSettings(leagueID)
	order, err := seeding.ParseOrder(settings.TiebreakOrder)
	if err != nil {
		return nil, err
	}
	return seeding.NewCalculator(order...), nil
}

// RunnerConfig converts the runner settings
func (c *EngineConfig) RunnerConfig() runner.Config {
	return runner.Config{
		MaxAttempts: c.Runner.MaxAttempts,
		RetryDelay:  time.Duration(c.Runner.RetryDelayMS) * time.Millisecond,
		MaxParallel: c.Runner.MaxParallel,
	}
}

// Level returns the configured logrus level
func (c *EngineConfig) Level() logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
