package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// Logger writes one record per request. Callers are logged by identity,
// never by credential.
func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Errors are rendered by the app error handler after the chain unwinds
		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}

		logLevel := slog.LevelInfo
		if status >= 500 {
			logLevel = slog.LevelError
		} else if status >= 400 {
			logLevel = slog.LevelWarn
		}

		attrs := append(requestAttrs(c),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("body_bytes", len(c.Body())),
			slog.String("ip", c.IP()),
			slog.String("user_agent", c.Get("User-Agent")),
		)
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			attrs = append(attrs, slog.String("error_code", appErr.Code))
		}

		logger.LogAttrs(c.Context(), logLevel, "http request", attrs...)

		return err
	}
}

// requestAttrs describes the request and its caller. The route is the
// registered pattern so guest and user ids stay out of it.
func requestAttrs(c *fiber.Ctx) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("route", c.Route().Path),
		slog.Any("request_id", c.Locals("requestid")),
	}

	if identity, ok := c.Locals(LocalIdentity).(domain.Identity); ok && identity.Valid() {
		return append(attrs,
			slog.String("identity_kind", string(identity.Kind)),
			slog.String("identity_id", identity.ID.String()),
		)
	}
	if token, ok := c.Locals(LocalGuestToken).(string); ok && token != "" {
		return append(attrs, slog.String("identity_kind", string(domain.IdentityGuest)))
	}
	return attrs
}
