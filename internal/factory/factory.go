package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/bashkah/partyroom/internal/coordinator"
	"github.com/bashkah/partyroom/internal/dependencies/clock"
	"github.com/bashkah/partyroom/internal/dependencies/random"
	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/services/phase"
	"github.com/bashkah/partyroom/internal/services/room"
	"github.com/bashkah/partyroom/internal/services/scoring"
	"github.com/bashkah/partyroom/internal/services/shuffle"
	"github.com/bashkah/partyroom/internal/store"
	"github.com/bashkah/partyroom/internal/store/memory"
	mongostore "github.com/bashkah/partyroom/internal/store/mongo"
	redisstore "github.com/bashkah/partyroom/internal/store/redis"
)

// Store type constants
const (
	StoreTypeMemory = "memory"
	StoreTypeRedis  = "redis"
	StoreTypeMongo  = "mongo"
)

// App contains all wired application components
type App struct {
	Store store.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Logger *slog.Logger

	// Services
	ShuffleEngine  *shuffle.Engine
	ScoringEngine  *scoring.Engine
	PhaseMachine   *phase.Machine
	RoomController *room.Controller

	CoordinatorConfig coordinator.Config
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional); a no-op logger is used
	// if nil
	Logger *slog.Logger
	// StoreType selects the store backend ("memory", "redis" or "mongo").
	// If empty, defaults to "memory".
	StoreType string
	// RedisConfig holds Redis connection settings (required if StoreType is "redis")
	RedisConfig *redisstore.Config
	// MongoConfig holds MongoDB connection settings (required if StoreType is "mongo")
	MongoConfig *mongostore.Config
	// CoordinatorConfig tunes coordinator timers; zero value means defaults
	CoordinatorConfig coordinator.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storeType := cfg.StoreType
	if storeType == "" {
		storeType = StoreTypeMemory
	}

	var st store.Store
	switch storeType {
	case StoreTypeMemory:
		st = memory.New()
	case StoreTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StoreType is redis")
		}
		redisStore, err := redisstore.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		st = redisStore
	case StoreTypeMongo:
		if cfg.MongoConfig == nil {
			return nil, errors.New("MongoConfig required when StoreType is mongo")
		}
		mongoStore, err := mongostore.New(ctx, *cfg.MongoConfig)
		if err != nil {
			return nil, err
		}
		st = mongoStore
	default:
		return nil, errors.New("invalid StoreType: must be 'memory', 'redis' or 'mongo'")
	}

	coordCfg := cfg.CoordinatorConfig
	if coordCfg.VoteTimeout == 0 {
		coordCfg = coordinator.DefaultConfig()
	}

	return newWithDependencies(st, clock.New(), random.New(), coordCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(st store.Store, clk clock.Clock, rnd random.Random, coordCfg coordinator.Config, logger *slog.Logger) *App {
	shuffleEngine := shuffle.NewEngine(rnd)
	scoringEngine := scoring.NewEngine()
	phaseMachine := phase.NewMachine(st, shuffleEngine, scoringEngine, logger)
	roomController := room.NewController(st, rnd, logger)

	return &App{
		Store:             st,
		Clock:             clk,
		Random:            rnd,
		Logger:            logger,
		ShuffleEngine:     shuffleEngine,
		ScoringEngine:     scoringEngine,
		PhaseMachine:      phaseMachine,
		RoomController:    roomController,
		CoordinatorConfig: coordCfg,
	}
}

// NewCoordinator creates a coordinator for one client identity, sharing
// the app's store and services
func (a *App) NewCoordinator(playerID model.PlayerID) *coordinator.Coordinator {
	return coordinator.New(
		playerID,
		a.Store,
		a.RoomController,
		a.PhaseMachine,
		a.Clock,
		a.CoordinatorConfig,
		a.Logger,
	)
}
