package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// Recover turns a panic into ErrInternal for the error handler and logs
// it with the request and caller.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				attrs := append(requestAttrs(c),
					slog.String("panic", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
				logger.LogAttrs(c.Context(), slog.LevelError, "panic recovered", attrs...)

				err = domain.ErrInternal
			}
		}()
		return c.Next()
	}
}
