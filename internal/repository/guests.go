package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

const guestColumns = `id, name, email, purpose, consent, consent_at, created_at, last_activity_at, expires_at`

type GuestRepository struct {
	pool PgxPool
}

func NewGuestRepository(pool PgxPool) *GuestRepository {
	return &GuestRepository{pool: pool}
}

func (r *GuestRepository) Create(ctx context.Context, guest *domain.Guest, set domain.DescriptorSet) error {
	query := `
		INSERT INTO guests (` + guestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			guest.ID,
			guest.Name,
			guest.Email,
			guest.Purpose,
			guest.Consent,
			guest.ConsentAt,
			guest.CreatedAt,
			guest.LastActivityAt,
			guest.ExpiresAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrBadRequest.WithMessage("Email already enrolled")
			}
			return fmt.Errorf("create guest: %w", err)
		}

		return insertDescriptors(ctx, tx, "guest_id", guest.ID, set)
	})
}

func (r *GuestRepository) Reenroll(ctx context.Context, guest *domain.Guest, set domain.DescriptorSet) error {
	query := `
		UPDATE guests
		SET name = $2, purpose = $3, consent = $4, consent_at = $5,
			last_activity_at = $6, expires_at = $7
		WHERE id = $1
	`

	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query,
			guest.ID,
			guest.Name,
			guest.Purpose,
			guest.Consent,
			guest.ConsentAt,
			guest.LastActivityAt,
			guest.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("update guest: %w", err)
		}
		if result.RowsAffected() == 0 {
			return domain.ErrGuestNotFound
		}

		return replaceDescriptors(ctx, tx, "guest_id", guest.ID, set)
	})
}

func (r *GuestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests WHERE id = $1`

	guest, err := scanGuest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapGuestErr("get guest by id", err)
	}
	return guest, nil
}

func (r *GuestRepository) GetByEmail(ctx context.Context, email string) (*domain.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests WHERE email = $1`

	guest, err := scanGuest(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, wrapGuestErr("get guest by email", err)
	}
	return guest, nil
}

// Touch only moves activity and retention forward.
func (r *GuestRepository) Touch(ctx context.Context, id uuid.UUID, at, expiresAt time.Time) error {
	query := `
		UPDATE guests
		SET last_activity_at = GREATEST(last_activity_at, $2),
			expires_at = GREATEST(expires_at, $3)
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, at, expiresAt)
	if err != nil {
		return fmt.Errorf("touch guest: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrGuestNotFound
	}
	return nil
}

// DeleteExpired relies on ON DELETE CASCADE for descriptors, attendance and
// tokens.
func (r *GuestRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM guests WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired guests: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var g domain.Guest
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Email,
		&g.Purpose,
		&g.Consent,
		&g.ConsentAt,
		&g.CreatedAt,
		&g.LastActivityAt,
		&g.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func wrapGuestErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrGuestNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
