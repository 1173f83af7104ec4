package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// RequireRole allows the request through when the authenticated user holds
// one of roles. It must be chained after UserAuth.
func RequireRole(logger *slog.Logger, roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		user, err := GetUser(c)
		if err != nil {
			return err
		}

		if !allowed[user.Role] {
			logger.Warn("insufficient privileges",
				"user_id", user.ID,
				"role", user.Role,
				"required", roles,
			)
			return domain.ErrForbidden
		}

		return c.Next()
	}
}
