package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/auth"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

const (
	// LocalUser is the key to retrieve the authenticated *domain.User
	LocalUser = "user"
	// LocalIdentity is the key to retrieve the domain.Identity of the caller
	LocalIdentity = "identity"
	// LocalGuestToken is the key to retrieve the raw guest bearer token
	LocalGuestToken = "guest_token"
)

// TokenVerifier validates staff JWTs.
type TokenVerifier interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// UserAuth authenticates registered users by JWT and stores the user and
// its identity in the request context.
func UserAuth(verifier TokenVerifier, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return domain.ErrUnauthorized
		}

		claims, err := verifier.ValidateToken(token)
		if err != nil {
			logger.Debug("invalid JWT token", "error", err)
			if errors.Is(err, auth.ErrExpiredToken) {
				return domain.ErrUnauthorized.WithMessage("Token expired")
			}
			return domain.ErrUnauthorized
		}

		user, err := claims.User()
		if err != nil {
			return domain.ErrUnauthorized
		}

		c.Locals(LocalUser, user)
		c.Locals(LocalIdentity, domain.RegisteredUser(user.ID))

		return c.Next()
	}
}

// GuestToken requires a bearer token and stores it for the guest handlers,
// which validate it together with the operation.
func GuestToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return domain.ErrInvalidToken
		}
		c.Locals(LocalGuestToken, token)
		return c.Next()
	}
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// GetUser retrieves the authenticated user from Fiber context
func GetUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := c.Locals(LocalUser).(*domain.User)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// GetIdentity retrieves the caller identity from Fiber context
func GetIdentity(c *fiber.Ctx) (domain.Identity, error) {
	identity, ok := c.Locals(LocalIdentity).(domain.Identity)
	if !ok || !identity.Valid() {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return identity, nil
}

// GetGuestToken retrieves the raw guest token from Fiber context
func GetGuestToken(c *fiber.Ctx) (string, error) {
	token, ok := c.Locals(LocalGuestToken).(string)
	if !ok || token == "" {
		return "", domain.ErrInvalidToken
	}
	return token, nil
}
