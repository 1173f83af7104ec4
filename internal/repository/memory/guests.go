package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

type GuestStore struct {
	db *DB
}

func (s *GuestStore) Create(ctx context.Context, guest *domain.Guest, set domain.DescriptorSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.guests[guest.ID]; exists {
		return domain.ErrBadRequest.WithMessage("Guest already exists")
	}
	for _, g := range s.db.guests {
		if g.Email == guest.Email {
			return domain.ErrBadRequest.WithMessage("Email already enrolled")
		}
	}

	s.db.guests[guest.ID] = *guest
	s.db.descriptors[domain.GuestIdentity(guest.ID, "").Key()] = set.Clone()
	return nil
}

func (s *GuestStore) Reenroll(ctx context.Context, guest *domain.Guest, set domain.DescriptorSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.guests[guest.ID]; !exists {
		return domain.ErrGuestNotFound
	}

	s.db.guests[guest.ID] = *guest
	s.db.descriptors[domain.GuestIdentity(guest.ID, "").Key()] = set.Clone()
	return nil
}

func (s *GuestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Guest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	g, ok := s.db.guests[id]
	if !ok {
		return nil, domain.ErrGuestNotFound
	}
	return &g, nil
}

func (s *GuestStore) GetByEmail(ctx context.Context, email string) (*domain.Guest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, g := range s.db.guests {
		if g.Email == email {
			return &g, nil
		}
	}
	return nil, domain.ErrGuestNotFound
}

func (s *GuestStore) Touch(ctx context.Context, id uuid.UUID, at, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	g, ok := s.db.guests[id]
	if !ok {
		return domain.ErrGuestNotFound
	}
	if at.After(g.LastActivityAt) {
		g.LastActivityAt = at
	}
	if expiresAt.After(g.ExpiresAt) {
		g.ExpiresAt = expiresAt
	}
	s.db.guests[id] = g
	return nil
}

func (s *GuestStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var deleted int64
	for id, g := range s.db.guests {
		if g.ExpiresAt.Before(now) {
			s.db.deleteGuestLocked(id)
			deleted++
		}
	}
	return deleted, nil
}
