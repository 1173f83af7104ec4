package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/database"
)

const version = "0.1.0"

// ReadinessCheck is one dependency pinged by /ready.
type ReadinessCheck struct {
	Name   string
	Pinger database.Pinger
}

type HealthHandler struct {
	checks []ReadinessCheck
}

// NewHealthHandler reports readiness from checks. Checks with a nil
// Pinger are skipped.
func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: version,
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	for _, check := range h.checks {
		if check.Pinger == nil {
			continue
		}
		if err := database.HealthCheck(c.Context(), check.Pinger); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
				Status: "unavailable",
				Error:  check.Name + " unreachable",
			})
		}
	}

	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
