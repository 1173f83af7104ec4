package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/presenca/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/presenca/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/presenca/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/presenca/internal/auth"
	"github.com/saturnino-fabrica-de-software/presenca/internal/database"
)

type Dependencies struct {
	Guests     handler.GuestService
	Users      handler.UserService
	Attendance handler.AttendanceReader
	JWT        middleware.TokenVerifier
	DB         database.Pinger
	// Faces and Tokens are checked by /ready when set.
	Faces  database.Pinger
	Tokens database.Pinger
	// GuestRateLimit caps anonymous enroll/resume requests per client IP per minute
	GuestRateLimit int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Presenca API",
		// Ten 10MB captures plus form fields
		BodyLimit: 110 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(middleware.Metrics())
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health and metrics endpoints (no auth required)
	var checks []handler.ReadinessCheck
	if r.deps != nil {
		checks = []handler.ReadinessCheck{
			{Name: "database", Pinger: r.deps.DB},
			{Name: "face provider", Pinger: r.deps.Faces},
			{Name: "token store", Pinger: r.deps.Tokens},
		}
	}
	healthHandler := handler.NewHealthHandler(checks...)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Only configure API routes if dependencies were provided
	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")
	r.setupGuestRoutes(v1)
	r.setupStaffRoutes(v1)
}

func (r *Router) setupGuestRoutes(v1 fiber.Router) {
	guestHandler := handler.NewGuestHandler(r.deps.Guests, r.logger)

	// Anonymous endpoints are throttled per client IP
	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    r.deps.GuestRateLimit,
		Window: time.Minute,
	})
	guests := v1.Group("/guests")
	guests.Post("/enroll", r.rateLimiter.Handler(), guestHandler.Enroll)
	guests.Post("/resume", r.rateLimiter.Handler(), guestHandler.Resume)

	bearer := guests.Group("", middleware.GuestToken())
	bearer.Post("/check-in", guestHandler.CheckIn)
	bearer.Post("/check-out", guestHandler.CheckOut)
	bearer.Get("/status", guestHandler.Status)
	bearer.Get("/history", guestHandler.History)
	bearer.Post("/logout", guestHandler.Logout)
}

func (r *Router) setupStaffRoutes(v1 fiber.Router) {
	attendanceHandler := handler.NewAttendanceHandler(r.deps.Users, r.deps.Attendance, r.logger)
	userAuth := middleware.UserAuth(r.deps.JWT, r.logger)

	users := v1.Group("/users", userAuth)
	users.Put("/me/face", attendanceHandler.EnrollFace)

	attendance := v1.Group("/attendance", userAuth)
	attendance.Post("/check-in", attendanceHandler.CheckIn)
	attendance.Post("/check-out", attendanceHandler.CheckOut)
	attendance.Get("/today", attendanceHandler.Today)
	attendance.Get("/my-records", attendanceHandler.MyRecords)
	attendance.Get("/date/:date", middleware.RequireRole(r.logger, auth.RoleAdmin), attendanceHandler.ByDate)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
