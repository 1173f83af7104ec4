package memory

import (
	"context"
	"time"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

type TokenStore struct {
	db *DB
}

func (s *TokenStore) Save(ctx context.Context, token *domain.CheckInToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.guests[token.GuestID]; !ok {
		return domain.ErrGuestNotFound
	}
	for hash, t := range s.db.tokens {
		if t.GuestID == token.GuestID {
			delete(s.db.tokens, hash)
		}
	}
	s.db.tokens[token.Hash] = *token
	return nil
}

func (s *TokenStore) GetByHash(ctx context.Context, hash string) (*domain.CheckInToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	t, ok := s.db.tokens[hash]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return &t, nil
}

func (s *TokenStore) Delete(ctx context.Context, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	delete(s.db.tokens, hash)
	return nil
}

func (s *TokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var deleted int64
	for hash, t := range s.db.tokens {
		if t.ExpiresAt.Before(now) {
			delete(s.db.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}
