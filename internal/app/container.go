// Package app wires configuration, persistence, the prioritization engine,
// and the event bus into a single dependency container.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/momentum/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/momentum/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/momentum/internal/prioritization/application/services"
	"github.com/felixgeelhaar/momentum/internal/prioritization/application/subscribers"
	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	"github.com/felixgeelhaar/momentum/internal/prioritization/infrastructure/persistence"
	"github.com/felixgeelhaar/momentum/internal/prioritization/infrastructure/ranker"
	"github.com/felixgeelhaar/momentum/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/momentum/pkg/config"
	"github.com/felixgeelhaar/momentum/pkg/observability"
)

// Pattern store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects optional infrastructure.
type Options struct {
	// UseRabbitMQ connects the publisher to the broker. When false, events
	// are dispatched synchronously on an in-process bus.
	UseRabbitMQ bool
}

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics

	// Persistence
	PatternStore domain.PatternStore
	RedisClient  *redis.Client
	PgPool       *pgxpool.Pool
	sqliteStore  *persistence.SQLitePatternStore

	// Events
	EventBus       *eventbus.InProcessEventBus
	EventPublisher eventbus.Publisher

	// Services
	WeightModel *services.AdaptiveWeightModel
	Engine      *services.Engine

	// Handlers
	PrioritizeTasksHandler *commands.PrioritizeTasksHandler
	RecordFeedbackHandler  *commands.RecordFeedbackHandler
	GetWeightsHandler      *queries.GetWeightsHandler

	// Subscribers
	FeedbackSubscriber *subscribers.FeedbackSubscriber
}

// NewContainer creates a fully wired container.
func NewContainer(ctx context.Context, opts Options) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.LoggerFromEnv()
	slog.SetDefault(logger)
	metrics := observability.NewInMemoryMetrics()

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	}

	if err := c.initPatternStore(ctx); err != nil {
		return nil, err
	}
	if err := c.initEventBus(opts); err != nil {
		c.closePersistence()
		return nil, err
	}
	c.initServices()
	c.initHandlers()

	logger.Info("container initialized",
		"env", cfg.AppEnv,
		"pattern_store", cfg.PatternStoreBackend,
		"ranker_enabled", cfg.RankerEnabled,
	)

	return c, nil
}

func (c *Container) initPatternStore(ctx context.Context) error {
	cfg := c.Config

	switch cfg.PatternStoreBackend {
	case BackendMemory, "":
		c.PatternStore = persistence.NewMemoryPatternStore(cfg.PatternTTL)

	case BackendRedis:
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		c.RedisClient = redis.NewClient(redisOpts)
		if err := c.RedisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.PatternStore = persistence.NewRedisPatternStore(c.RedisClient, cfg.PatternTTL)

	case BackendSQLite:
		store, err := persistence.OpenSQLitePatternStore(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite pattern store: %w", err)
		}
		c.sqliteStore = store
		c.PatternStore = store

	case BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		store := persistence.NewPostgresPatternStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return err
		}
		c.PgPool = pool
		c.PatternStore = store

	default:
		return fmt.Errorf("unknown pattern store backend %q", cfg.PatternStoreBackend)
	}

	return nil
}

func (c *Container) initEventBus(opts Options) error {
	if opts.UseRabbitMQ {
		pub, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger, c.Metrics)
		if err != nil {
			return err
		}
		c.EventPublisher = pub
		return nil
	}

	c.EventBus = eventbus.NewInProcessEventBus(c.Logger)
	c.EventPublisher = eventbus.NewInProcessPublisher(c.EventBus, c.Logger)
	return nil
}

func (c *Container) initServices() {
	cfg := c.Config
	clock := services.NewSystemClock(cfg.Location())

	urgency := services.NewUrgencyCalculator(clock)
	detector := services.NewKeywordSignalDetector()
	features := services.NewFeatureExtractor()
	risk := services.NewRiskPredictor()
	fallback := services.NewFallbackRanker(clock)
	insights := services.NewInsightGenerator(urgency, clock)

	c.WeightModel = services.NewAdaptiveWeightModel(c.PatternStore, clock, c.Logger, c.Metrics)

	var taskRanker services.TaskRanker
	if cfg.RankerEnabled && cfg.RankerEndpoint != "" {
		rcfg := ranker.DefaultConfig(cfg.RankerEndpoint, cfg.RankerModel, cfg.RankerAPIKey)
		rcfg.Timeout = cfg.RankerTimeout
		taskRanker = ranker.NewCompletionRanker(rcfg, c.Logger)
	}

	c.Engine = services.NewEngine(
		urgency, detector, features, risk,
		c.WeightModel, fallback, insights,
		taskRanker, clock, c.Logger, c.Metrics,
		services.EngineConfig{
			Concurrency:   cfg.ScoringConcurrency,
			RankerTimeout: cfg.RankerTimeout,
		},
	)
}

func (c *Container) initHandlers() {
	loc := c.Config.Location()

	c.PrioritizeTasksHandler = commands.NewPrioritizeTasksHandler(c.Engine, c.EventPublisher, loc, c.Logger)
	c.RecordFeedbackHandler = commands.NewRecordFeedbackHandler(c.WeightModel, c.Engine, c.EventPublisher, loc, c.Logger, c.Metrics)
	c.GetWeightsHandler = queries.NewGetWeightsHandler(c.WeightModel)

	c.FeedbackSubscriber = subscribers.NewFeedbackSubscriber(c.RecordFeedbackHandler, c.Logger)
	if c.EventBus != nil {
		c.EventBus.RegisterConsumer(c.FeedbackSubscriber)
	}
}

func (c *Container) closePersistence() {
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
	if c.sqliteStore != nil {
		_ = c.sqliteStore.Close()
	}
	if c.PgPool != nil {
		c.PgPool.Close()
	}
}

// Close releases all held resources.
func (c *Container) Close() error {
	var firstErr error

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.sqliteStore != nil {
		if err := c.sqliteStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.PgPool != nil {
		c.PgPool.Close()
	}

	c.Logger.Info("container closed")
	return firstErr
}
