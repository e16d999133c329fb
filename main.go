package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cabf05/lotworker/config"
	"cabf05/lotworker/helpers"
	"cabf05/lotworker/internal/scraper"
	"cabf05/lotworker/logger"
	"cabf05/lotworker/services/cache"
	"cabf05/lotworker/services/notifier"
	"cabf05/lotworker/services/storage"
	"cabf05/lotworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("base_url", cfg.BaseURL).
		Dur("collect_interval", cfg.CollectInterval).
		Bool("collect_once", cfg.CollectOnce).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Create and start worker
	w := worker.NewWorker(
		ctx,
		scraper.NewRunner(cfg),
		services.Store,
		services.Notifier,
		services.Guard,
		helpers.NewLogger(cfg.ErrorLogFile),
		cfg.CollectInterval,
		cfg.CollectOnce,
	)

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting lot collection worker")
		err := w.Start()
		workerDone <- err
	}()

	// Wait for shutdown signal or worker error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-workerDone:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Store    storage.ResultSink
	Notifier notifier.Notifier
	Guard    cache.CacheService
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Notifier != nil {
		s.Notifier.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize result store
	store, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	services.Store = store

	logger.Info("Connected to Postgres")

	// Initialize daily-run guard cache
	services.Guard = cache.NewMemcacheService(cfg.MemcacheAddr)

	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize completion notifier
	switch cfg.NotifyDriver {
	case "redis":
		services.Notifier = notifier.NewRedisNotifier(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	case "smtp":
		services.Notifier = notifier.NewSMTPNotifier(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
			cfg.SMTPFrom,
			cfg.SMTPTo,
		)
		logger.Info("Using SMTP notifier via %s:%d", cfg.SMTPHost, cfg.SMTPPort)
	default:
		services.Notifier = notifier.Noop{}
	}

	return services, nil
}
