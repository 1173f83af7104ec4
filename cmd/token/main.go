package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/auth"
	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// token issues a staff JWT signed with the configured secret, for local
// development against the API.
func main() {
	id := flag.String("id", "", "User ID (random when empty)")
	email := flag.String("email", "staff@example.com", "User email")
	name := flag.String("name", "Staff", "User name")
	role := flag.String("role", auth.RoleStaff, "User role: staff or admin")
	flag.Parse()

	if err := run(*id, *email, *name, *role); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(id, email, name, role string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if role != auth.RoleStaff && role != auth.RoleAdmin {
		return fmt.Errorf("invalid role %q", role)
	}

	userID := uuid.New()
	if id != "" {
		if userID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiresIn)
	token, err := jwtService.GenerateToken(domain.User{
		ID:    userID,
		Email: email,
		Name:  name,
		Role:  role,
	})
	if err != nil {
		return err
	}

	fmt.Printf("USER_ID=%s\nTOKEN=%s\n", userID, token)
	return nil
}
