package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

type DescriptorRepository struct {
	pool PgxPool
}

func NewDescriptorRepository(pool PgxPool) *DescriptorRepository {
	return &DescriptorRepository{pool: pool}
}

// owner maps an identity kind to its table and face_descriptors column.
type owner struct {
	table    string
	column   string
	notFound error
}

func ownerOf(kind domain.IdentityKind) (owner, error) {
	switch kind {
	case domain.IdentityUser:
		return owner{table: "users", column: "user_id", notFound: domain.ErrUserNotFound}, nil
	case domain.IdentityGuest:
		return owner{table: "guests", column: "guest_id", notFound: domain.ErrGuestNotFound}, nil
	default:
		return owner{}, fmt.Errorf("unknown identity kind %q", kind)
	}
}

// Replace swaps the identity's set. The owner row is locked so concurrent
// replacements serialize.
func (r *DescriptorRepository) Replace(ctx context.Context, identity domain.Identity, set domain.DescriptorSet) error {
	o, err := ownerOf(identity.Kind)
	if err != nil {
		return err
	}

	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id uuid.UUID
		lock := fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, o.table)
		err := tx.QueryRow(ctx, lock, identity.ID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return o.notFound
		}
		if err != nil {
			return fmt.Errorf("lock descriptor owner: %w", err)
		}

		return replaceDescriptors(ctx, tx, o.column, identity.ID, set)
	})
}

func (r *DescriptorRepository) Get(ctx context.Context, identity domain.Identity) (domain.DescriptorSet, error) {
	o, err := ownerOf(identity.Kind)
	if err != nil {
		return nil, err
	}

	return loadDescriptors(ctx, r.pool, o.column, identity.ID)
}

func replaceDescriptors(ctx context.Context, q querier, column string, id uuid.UUID, set domain.DescriptorSet) error {
	del := fmt.Sprintf(`DELETE FROM face_descriptors WHERE %s = $1`, column)
	if _, err := q.Exec(ctx, del, id); err != nil {
		return fmt.Errorf("delete descriptors: %w", err)
	}
	return insertDescriptors(ctx, q, column, id, set)
}

func insertDescriptors(ctx context.Context, q querier, column string, id uuid.UUID, set domain.DescriptorSet) error {
	insert := fmt.Sprintf(`
		INSERT INTO face_descriptors (%s, position, descriptor, created_at)
		VALUES ($1, $2, $3, NOW())
	`, column)

	for i, d := range set {
		if _, err := q.Exec(ctx, insert, id, i, d.Vector()); err != nil {
			return fmt.Errorf("insert descriptor %d: %w", i, err)
		}
	}
	return nil
}

func loadDescriptors(ctx context.Context, q querier, column string, id uuid.UUID) (domain.DescriptorSet, error) {
	query := fmt.Sprintf(`
		SELECT descriptor
		FROM face_descriptors
		WHERE %s = $1
		ORDER BY position
	`, column)

	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get descriptors: %w", err)
	}
	defer rows.Close()

	var set domain.DescriptorSet
	for rows.Next() {
		var vec pgvector.Vector
		if err := rows.Scan(&vec); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		set = append(set, domain.DescriptorFromVector(vec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}

	if len(set) == 0 {
		return nil, domain.ErrNotEnrolled
	}
	return set, nil
}
