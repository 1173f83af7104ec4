package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Provider
	ProviderType      string        `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL       string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel     string        `envconfig:"DEEPFACE_MODEL" default:"Facenet"`
	DeepFaceDetector  string        `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	AWSRegion         string        `envconfig:"AWS_REGION" default:"us-east-1"`
	ExtractTimeout    time.Duration `envconfig:"EXTRACT_TIMEOUT" default:"10s"`
	EnrollConcurrency int           `envconfig:"ENROLL_CONCURRENCY" default:"4"`

	// Biometrics
	MatchThreshold       float64 `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	ConsistencyThreshold float64 `envconfig:"CONSISTENCY_THRESHOLD" default:"0.4"`

	// Attendance
	LateCutoff string `envconfig:"LATE_CUTOFF" default:"09:00"`
	Timezone   string `envconfig:"TIMEZONE" default:"Local"`

	// Guests
	GuestTokenTTL  time.Duration `envconfig:"GUEST_TOKEN_TTL" default:"12h"`
	GuestRetention time.Duration `envconfig:"GUEST_RETENTION" default:"168h"`
	TokenStore     string        `envconfig:"TOKEN_STORE" default:"postgres"`
	RedisURL       string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	GuestRateLimit int           `envconfig:"GUEST_RATE_LIMIT" default:"20"`

	// Cleanup
	CleanupSchedule string        `envconfig:"CLEANUP_SCHEDULE" default:"0 2 * * *"`
	CleanupTimeout  time.Duration `envconfig:"CLEANUP_TIMEOUT" default:"5m"`

	// Security
	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer    string        `envconfig:"JWT_ISSUER" default:"presenca"`
	JWTExpiresIn time.Duration `envconfig:"JWT_EXPIRES_IN" default:"24h"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.ProviderType {
	case "deepface", "rekognition", "mock":
	default:
		return fmt.Errorf("invalid PROVIDER_TYPE %q", c.ProviderType)
	}
	switch c.TokenStore {
	case "postgres", "redis":
	default:
		return fmt.Errorf("invalid TOKEN_STORE %q", c.TokenStore)
	}
	if c.MatchThreshold <= 0 {
		return fmt.Errorf("MATCH_THRESHOLD must be positive")
	}
	if c.ConsistencyThreshold <= 0 {
		return fmt.Errorf("CONSISTENCY_THRESHOLD must be positive")
	}
	if c.EnrollConcurrency < 1 {
		return fmt.Errorf("ENROLL_CONCURRENCY must be at least 1")
	}
	if c.GuestTokenTTL <= 0 || c.GuestRetention <= 0 {
		return fmt.Errorf("GUEST_TOKEN_TTL and GUEST_RETENTION must be positive")
	}
	if c.GuestRateLimit < 1 {
		return fmt.Errorf("GUEST_RATE_LIMIT must be at least 1")
	}
	if _, err := c.Cutoff(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Cutoff returns LATE_CUTOFF as an offset from local midnight.
func (c *Config) Cutoff() (time.Duration, error) {
	t, err := time.Parse("15:04", c.LateCutoff)
	if err != nil {
		return 0, fmt.Errorf("invalid LATE_CUTOFF %q: %w", c.LateCutoff, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
