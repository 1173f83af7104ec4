package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
)

type StatsRepository struct {
	pool PgxPool
	loc  *time.Location
}

// NewStatsRepository counts today's attendance in loc.
func NewStatsRepository(pool PgxPool, loc *time.Location) *StatsRepository {
	if loc == nil {
		loc = time.Local
	}
	return &StatsRepository{pool: pool, loc: loc}
}

func (r *StatsRepository) Snapshot(ctx context.Context, now time.Time) (metrics.Snapshot, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM guests WHERE expires_at >= $1),
			(SELECT COUNT(*) FROM attendance_records WHERE date = $2)
	`

	today := domain.DateOf(now.In(r.loc))

	var snap metrics.Snapshot
	err := r.pool.QueryRow(ctx, query, now, today.Time(time.UTC)).Scan(&snap.ActiveGuests, &snap.CheckedInToday)
	if err != nil {
		return metrics.Snapshot{}, fmt.Errorf("stats snapshot: %w", err)
	}
	return snap, nil
}
