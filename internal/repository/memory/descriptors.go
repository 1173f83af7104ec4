package memory

import (
	"context"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

type DescriptorStore struct {
	db *DB
}

func (s *DescriptorStore) Replace(ctx context.Context, identity domain.Identity, set domain.DescriptorSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	switch identity.Kind {
	case domain.IdentityGuest:
		if _, ok := s.db.guests[identity.ID]; !ok {
			return domain.ErrGuestNotFound
		}
	case domain.IdentityUser:
		u, ok := s.db.users[identity.ID]
		if !ok {
			return domain.ErrUserNotFound
		}
		u.Enrolled = len(set) > 0
		s.db.users[identity.ID] = u
	}

	s.db.descriptors[identity.Key()] = set.Clone()
	return nil
}

func (s *DescriptorStore) Get(ctx context.Context, identity domain.Identity) (domain.DescriptorSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	set, ok := s.db.descriptors[identity.Key()]
	if !ok || len(set) == 0 {
		return nil, domain.ErrNotEnrolled
	}
	return set.Clone(), nil
}
