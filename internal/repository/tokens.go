package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

type TokenRepository struct {
	pool PgxPool
}

func NewTokenRepository(pool PgxPool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Save keeps a single token per guest; issuing a new one revokes the old.
func (r *TokenRepository) Save(ctx context.Context, token *domain.CheckInToken) error {
	query := `
		INSERT INTO checkin_tokens (token_hash, guest_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guest_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`

	_, err := r.pool.Exec(ctx, query, token.Hash, token.GuestID, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrGuestNotFound
		}
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (r *TokenRepository) GetByHash(ctx context.Context, hash string) (*domain.CheckInToken, error) {
	query := `
		SELECT token_hash, guest_id, expires_at, created_at
		FROM checkin_tokens
		WHERE token_hash = $1
	`

	var t domain.CheckInToken
	err := r.pool.QueryRow(ctx, query, hash).Scan(&t.Hash, &t.GuestID, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepository) Delete(ctx context.Context, hash string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM checkin_tokens WHERE token_hash = $1`, hash); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM checkin_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
