package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/presenca/internal/api"
	"github.com/saturnino-fabrica-de-software/presenca/internal/app"
	"github.com/saturnino-fabrica-de-software/presenca/internal/auth"
	"github.com/saturnino-fabrica-de-software/presenca/internal/cleanup"
	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/database"
	"github.com/saturnino-fabrica-de-software/presenca/internal/face"
	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
	"github.com/saturnino-fabrica-de-software/presenca/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting Presenca API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ProviderType),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer stores.Close()

	// Face extraction
	extractor, err := face.NewFaceExtractor(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create face extractor: %w", err)
	}

	services, err := app.NewServices(cfg, stores, extractor, logger)
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}

	// Guest retention refreshes are batched off the request path
	activityWorker := service.NewActivityWorker(services.Guests, logger, service.DefaultActivityWorkerConfig())
	services.Guests.WithActivityRecorder(activityWorker)
	activityWorker.Start()

	// Daily cleanup of expired guests and tokens
	loc, _ := cfg.Location()
	scheduler := cleanup.NewScheduler(services.Guests, logger, cleanup.Config{
		Schedule: cfg.CleanupSchedule,
		Timeout:  cfg.CleanupTimeout,
		Location: loc,
	})
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start cleanup scheduler: %w", err)
	}

	// Gauges for active guests and today's check-ins
	aggregator := metrics.NewAggregator(stores.Stats, logger, time.Minute)
	go aggregator.Start(ctx)

	// Only pingable dependencies join the readiness checks
	var faces, tokens database.Pinger
	if p, ok := extractor.(database.Pinger); ok {
		faces = p
	}
	if p, ok := stores.Tokens.(database.Pinger); ok {
		tokens = p
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Guests:         services.Guests,
		Users:          services.Users,
		Attendance:     services.Attendance,
		JWT:            auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiresIn),
		DB:             stores.Pool,
		Faces:          faces,
		Tokens:         tokens,
		GuestRateLimit: cfg.GuestRateLimit,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		serveErr = fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	aggregator.Stop()
	scheduler.Stop(shutdownCtx)
	// Flush pending retention refreshes after the last request
	activityWorker.Stop()

	logger.Info("server stopped")

	return serveErr
}
