// Package app assembles stores and services from configuration.
package app

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/saturnino-fabrica-de-software/presenca/internal/audit"
	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/database"
	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
	"github.com/saturnino-fabrica-de-software/presenca/internal/repository"
	"github.com/saturnino-fabrica-de-software/presenca/internal/repository/redisstore"
	"github.com/saturnino-fabrica-de-software/presenca/internal/service"
)

// Stores holds the persistence layer selected by configuration.
type Stores struct {
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	Users       service.UserStore
	Guests      service.GuestStore
	Descriptors service.DescriptorStore
	Attendance  service.AttendanceStore
	Tokens      service.TokenStore
	Stats       metrics.StatsSource
}

// OpenStores connects to Postgres and, with TOKEN_STORE=redis, to Redis.
func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, err
	}

	s := &Stores{
		Pool:        pool,
		Users:       repository.NewUserRepository(pool),
		Guests:      repository.NewGuestRepository(pool),
		Descriptors: repository.NewDescriptorRepository(pool),
		Attendance:  repository.NewAttendanceRepository(pool),
		Tokens:      repository.NewTokenRepository(pool),
		Stats:       repository.NewStatsRepository(pool, loc),
	}

	if cfg.TokenStore == "redis" {
		client, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, err
		}
		s.Redis = client
		s.Tokens = redisstore.NewTokenStore(client)
	}

	logger.Info("stores ready", slog.String("token_store", cfg.TokenStore))
	return s, nil
}

func (s *Stores) Close() {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	s.Pool.Close()
}

// Services holds the configured domain services.
type Services struct {
	Attendance *service.AttendanceService
	Guests     *service.GuestService
	Users      *service.UserService
}

// NewServices configures the services from cfg on top of stores.
func NewServices(cfg *config.Config, stores *Stores, extractor provider.FaceExtractor, logger *slog.Logger) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	cutoff, err := cfg.Cutoff()
	if err != nil {
		return nil, err
	}

	auditLogger := audit.NewSlogLogger(logger)

	enrollment := service.NewEnrollmentService(extractor, logger).
		WithConsistencyThreshold(cfg.ConsistencyThreshold).
		WithTimeout(cfg.ExtractTimeout).
		WithConcurrency(cfg.EnrollConcurrency)

	verification := service.NewVerificationService(extractor, logger).
		WithThreshold(cfg.MatchThreshold).
		WithTimeout(cfg.ExtractTimeout)

	attendance := service.NewAttendanceService(stores.Attendance, logger).
		WithLocation(loc).
		WithLateCutoff(cutoff).
		WithAuditLogger(auditLogger)

	guests := service.NewGuestService(
		stores.Guests,
		stores.Descriptors,
		stores.Tokens,
		enrollment,
		verification,
		attendance,
		logger,
	).
		WithTokenTTL(cfg.GuestTokenTTL).
		WithRetention(cfg.GuestRetention).
		WithAuditLogger(auditLogger)

	users := service.NewUserService(
		stores.Users,
		stores.Descriptors,
		enrollment,
		verification,
		attendance,
		logger,
	).WithAuditLogger(auditLogger)

	return &Services{
		Attendance: attendance,
		Guests:     guests,
		Users:      users,
	}, nil
}
