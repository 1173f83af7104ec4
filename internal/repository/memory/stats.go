package memory

import (
	"context"
	"time"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
)

// Snapshot implements metrics.StatsSource.
func (db *DB) Snapshot(ctx context.Context, now time.Time) (metrics.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return metrics.Snapshot{}, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	var snap metrics.Snapshot
	for _, g := range db.guests {
		if !g.IsExpired(now) {
			snap.ActiveGuests++
		}
	}
	today := domain.DateOf(now)
	for key := range db.attendance {
		if key.Date == today {
			snap.CheckedInToday++
		}
	}
	return snap, nil
}
