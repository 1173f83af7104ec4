package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type IdentityKind string

const (
	IdentityUser  IdentityKind = "user"
	IdentityGuest IdentityKind = "guest"
)

// Identity is either a registered user or a token-bearing guest.
type Identity struct {
	Kind  IdentityKind
	ID    uuid.UUID
	Token string
}

func RegisteredUser(id uuid.UUID) Identity {
	return Identity{Kind: IdentityUser, ID: id}
}

func GuestIdentity(id uuid.UUID, token string) Identity {
	return Identity{Kind: IdentityGuest, ID: id, Token: token}
}

func (i Identity) IsGuest() bool {
	return i.Kind == IdentityGuest
}

// Key identifies the identity independent of any token it carries.
func (i Identity) Key() string {
	return fmt.Sprintf("%s:%s", i.Kind, i.ID)
}

func (i Identity) Valid() bool {
	return (i.Kind == IdentityUser || i.Kind == IdentityGuest) && i.ID != uuid.Nil
}

// User is a registered account. Credentials are managed elsewhere.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Enrolled bool      `json:"enrolled"`
}
