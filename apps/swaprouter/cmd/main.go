package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"swaprouter/apps/swaprouter/internal/api"
	"swaprouter/apps/swaprouter/internal/assets"
	"swaprouter/apps/swaprouter/internal/config"
	"swaprouter/apps/swaprouter/internal/engine"
	"swaprouter/apps/swaprouter/internal/event_publisher"
	"swaprouter/apps/swaprouter/internal/executor"
	"swaprouter/apps/swaprouter/internal/notifier"
	"swaprouter/apps/swaprouter/internal/provider"
	"swaprouter/apps/swaprouter/internal/queue"
	"swaprouter/apps/swaprouter/internal/repository"
	"swaprouter/apps/swaprouter/internal/router"
)

func main() {
	// Initialize zap logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Load configuration from environment variables
	cfg := config.NewConfig()

	logger.Info("Starting application with configuration",
		zap.String("db_url", cfg.DbURL),
		zap.String("kafka_broker", cfg.KafkaBroker),
		zap.String("kafka_topic", cfg.KafkaTopic),
		zap.Int("api_port", cfg.APIPort),
		zap.Int("worker_count", cfg.WorkerCount),
		zap.Duration("queue_base_delay", cfg.QueueBaseDelay),
		zap.Int("queue_max_attempts", cfg.QueueMaxAttempts),
	)

	// Connect to database
	db, err := sql.Open("postgres", cfg.DbURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize database tables
	if err := repository.InitMigration(db); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	orderRepository := repository.NewOrderRepository(db, logger)
	outboxRepository := repository.NewOutboxRepository(db, logger)

	registry := assets.NewAssetRegistry()
	hub := notifier.NewHub(logger)

	// Competing quote providers. Registration order is the routing
	// tie-break priority.
	providers := []provider.QuoteProvider{
		provider.NewSimulated(provider.SimulatedConfig{
			Name:        "jupiter",
			Fee:         0.0025,
			Variance:    0.005,
			Latency:     cfg.ProviderLatency,
			FailureRate: cfg.FailureRate,
			Seed:        cfg.RandomSeed,
		}, registry, logger),
		provider.NewSimulated(provider.SimulatedConfig{
			Name:        "raydium",
			Fee:         0.003,
			Variance:    0.008,
			Latency:     cfg.ProviderLatency,
			FailureRate: cfg.FailureRate,
			Seed:        cfg.RandomSeed,
		}, registry, logger),
	}

	orderRouter, err := router.New(providers, 5*time.Second, logger)
	if err != nil {
		logger.Fatal("Failed to create router", zap.Error(err))
	}

	settlementExecutor := executor.NewSimulated(executor.SimulatedConfig{
		Latency:     cfg.ExecutorLatency,
		FailureRate: cfg.FailureRate,
		Seed:        cfg.RandomSeed,
	}, logger)

	processor := engine.NewProcessor(orderRepository, outboxRepository, orderRouter, settlementExecutor, hub, logger)

	// Start the job queue
	jobQueue := queue.New(queue.Config{
		Workers:     cfg.WorkerCount,
		BaseDelay:   cfg.QueueBaseDelay,
		MaxAttempts: cfg.QueueMaxAttempts,
	}, processor, logger)
	jobQueue.Start(context.Background())
	defer jobQueue.Stop()

	// Create event publisher
	eventPublisher, err := event_publisher.NewEventPublisher(cfg.KafkaBroker, cfg.KafkaTopic, logger, outboxRepository)
	if err != nil {
		logger.Fatal("Failed to create event publisher", zap.Error(err))
	}
	defer eventPublisher.Close()

	// Start event publisher in background
	go eventPublisher.StartPublishing()

	// Create and start API server
	apiServer := api.NewServer(cfg.APIPort, orderRepository, jobQueue, jobQueue, hub, registry, logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Received shutdown signal, starting graceful shutdown...")

	// Create a context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown API server gracefully
	if err := apiServer.Stop(ctx); err != nil {
		logger.Error("Error shutting down API server", zap.Error(err))
	}

	logger.Info("Application shutdown complete")
}
