package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/config"
	"github.com/chatbridge/chatbridge/repositories"
	"github.com/chatbridge/chatbridge/repositories/postgres"
	"github.com/chatbridge/chatbridge/services/broker"
	"github.com/chatbridge/chatbridge/services/providers"
	"github.com/chatbridge/chatbridge/services/providers/anthropic"
	"github.com/chatbridge/chatbridge/services/providers/gemini"
	"github.com/chatbridge/chatbridge/services/providers/groq"
	"github.com/chatbridge/chatbridge/services/providers/openai"
	"github.com/chatbridge/chatbridge/services/respond"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection: the provider registry and the
// broker are explicit values owned here, not package-level state.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB

	// Repositories
	ChatSettings repositories.ChatSettingsRepository
	Responses    repositories.ResponseRepository

	// Provider routing
	Registry *providers.Registry

	// Event fan-out
	Broker  *broker.Broker
	Sweeper *broker.Sweeper

	// Pipeline
	Respond *respond.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initProviders(cfg)
	deps.initBroker(cfg)

	deps.Respond = respond.NewService(
		deps.Registry,
		deps.ChatSettings,
		deps.Responses,
		deps.Broker,
		logger,
	)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase opens the PostgreSQL connection pool
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	d.DB = db

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// initRepositories creates the repository instances
func (d *Dependencies) initRepositories() {
	d.ChatSettings = postgres.NewChatSettingsRepository(d.DB, d.Logger)
	d.Responses = postgres.NewResponseRepository(d.DB, d.Logger)
	d.Logger.Info("repositories initialized")
}

// initProviders creates the registry and registers a builder per hosted
// provider. Adapters are constructed lazily on first use.
func (d *Dependencies) initProviders(cfg *config.Config) {
	registry := providers.NewRegistry(cfg.Providers.APIKeys(), d.Logger)

	registry.RegisterBuilder(providers.ProviderAnthropic, func(pc providers.ProviderConfig) (providers.Provider, error) {
		return anthropic.NewAdapter(pc)
	})
	registry.RegisterBuilder(providers.ProviderOpenAI, func(pc providers.ProviderConfig) (providers.Provider, error) {
		return openai.NewAdapter(pc)
	})
	registry.RegisterBuilder(providers.ProviderGroq, func(pc providers.ProviderConfig) (providers.Provider, error) {
		return groq.NewAdapter(pc)
	})
	registry.RegisterBuilder(providers.ProviderGemini, func(pc providers.ProviderConfig) (providers.Provider, error) {
		return gemini.NewAdapter(pc)
	})

	d.Registry = registry
	d.Logger.Info("provider registry initialized",
		zap.Strings("available", registry.AvailableProviders()))
}

// initBroker creates the result broker and its liveness sweeper
func (d *Dependencies) initBroker(cfg *config.Config) {
	d.Broker = broker.NewWithOptions(broker.Options{
		HeartbeatInterval: cfg.Broker.HeartbeatInterval,
		SweepInterval:     cfg.Broker.SweepInterval,
		StaleAfter:        cfg.Broker.StaleAfter,
		QueueSize:         cfg.Broker.QueueSize,
	}, d.Logger)
	d.Sweeper = broker.NewSweeper(d.Broker, d.Logger)
}

// Start launches the background workers (broker heartbeat, liveness
// sweeper). They stop when ctx is canceled.
func (d *Dependencies) Start(ctx context.Context) {
	go d.Broker.StartHeartbeat(ctx)
	go d.Sweeper.Run(ctx)
}

// Close releases held resources
func (d *Dependencies) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
