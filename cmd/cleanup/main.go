package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/saturnino-fabrica-de-software/presenca/internal/app"
	"github.com/saturnino-fabrica-de-software/presenca/internal/cleanup"
	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/face"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run performs one cleanup pass, the same one the API schedules daily.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer stores.Close()

	extractor, err := face.NewFaceExtractor(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create face extractor: %w", err)
	}

	services, err := app.NewServices(cfg, stores, extractor, logger)
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}

	loc, _ := cfg.Location()
	scheduler := cleanup.NewScheduler(services.Guests, logger, cleanup.Config{
		Timeout:  cfg.CleanupTimeout,
		Location: loc,
	})

	deleted, err := scheduler.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Printf("deleted %d expired guest(s)\n", deleted)
	return nil
}
