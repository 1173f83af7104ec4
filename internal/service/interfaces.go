package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// DescriptorStore persists enrolled descriptor sets per identity.
type DescriptorStore interface {
	// Replace swaps the identity's set wholesale.
	Replace(ctx context.Context, identity domain.Identity, set domain.DescriptorSet) error
	// Get returns domain.ErrNotEnrolled when the identity has no set.
	Get(ctx context.Context, identity domain.Identity) (domain.DescriptorSet, error)
}

// AttendanceStore persists one record per identity and date.
type AttendanceStore interface {
	// CreateIfAbsent inserts rec unless a record already exists for its key.
	// It reports false without error on conflict.
	CreateIfAbsent(ctx context.Context, rec *domain.AttendanceRecord) (bool, error)
	// Get returns domain.ErrNotFound when no record exists for key.
	Get(ctx context.Context, key domain.AttendanceKey) (*domain.AttendanceRecord, error)
	// CompleteCheckOut writes check-out fields only if the stored record has
	// none yet. It reports false when another check-out won.
	CompleteCheckOut(ctx context.Context, rec *domain.AttendanceRecord) (bool, error)
	ListByIdentity(ctx context.Context, identity domain.Identity, limit int) ([]*domain.AttendanceRecord, error)
	ListByDate(ctx context.Context, date domain.Date) ([]*domain.AttendanceRecord, error)
}

// GuestStore persists guests together with their descriptor sets.
type GuestStore interface {
	// Create stores the guest and its descriptors atomically.
	Create(ctx context.Context, guest *domain.Guest, set domain.DescriptorSet) error
	// Reenroll updates the profile and replaces the set atomically.
	Reenroll(ctx context.Context, guest *domain.Guest, set domain.DescriptorSet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Guest, error)
	GetByEmail(ctx context.Context, email string) (*domain.Guest, error)
	// Touch records activity and pushes the retention deadline.
	Touch(ctx context.Context, id uuid.UUID, at, expiresAt time.Time) error
	// DeleteExpired removes guests whose retention ended before now, with
	// their descriptors, attendance and tokens.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenStore persists hashed guest bearer tokens.
type TokenStore interface {
	// Save stores token, replacing any previous token of the same guest.
	Save(ctx context.Context, token *domain.CheckInToken) error
	// GetByHash returns domain.ErrInvalidToken when the hash is unknown.
	GetByHash(ctx context.Context, hash string) (*domain.CheckInToken, error)
	Delete(ctx context.Context, hash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserStore reads registered accounts.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// Upsert creates the account row on first enrollment and updates it after.
	Upsert(ctx context.Context, user *domain.User) error
}

// ActivityRecorder receives guest activity for deferred retention refresh.
type ActivityRecorder interface {
	Record(guestID uuid.UUID, at time.Time)
}
