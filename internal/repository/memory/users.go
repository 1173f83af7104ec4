package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

type UserStore struct {
	db *DB
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// Upsert keeps the enrolled flag, which follows the descriptor set.
func (s *UserStore) Upsert(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u := *user
	u.Enrolled = len(s.db.descriptors[domain.RegisteredUser(user.ID).Key()]) > 0
	s.db.users[user.ID] = u
	return nil
}
