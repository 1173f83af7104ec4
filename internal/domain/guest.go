package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultGuestRetention = 7 * 24 * time.Hour
	DefaultTokenTTL       = 12 * time.Hour
)

// Guest is an unregistered visitor identified by face and a bearer token.
type Guest struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Purpose        string     `json:"purpose,omitempty"`
	Consent        bool       `json:"consent"`
	ConsentAt      *time.Time `json:"consent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
}

// IsExpired reports whether the retention period has elapsed at now.
func (g *Guest) IsExpired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

// CheckInToken is the stored form of a guest bearer token. The plaintext is
// only returned once, at issuance.
type CheckInToken struct {
	Hash      string    `json:"-"`
	GuestID   uuid.UUID `json:"guest_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired checks if the token has expired at now
func (t *CheckInToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IssuedToken pairs the plaintext token with its stored record.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
