package metrics

import (
	"context"
	"log/slog"
	"time"
)

// Snapshot is a point-in-time view of stored state.
type Snapshot struct {
	ActiveGuests   int64
	CheckedInToday int64
}

// StatsSource computes a Snapshot from storage.
type StatsSource interface {
	Snapshot(ctx context.Context, now time.Time) (Snapshot, error)
}

// Aggregator periodically refreshes gauges from storage
type Aggregator struct {
	source   StatsSource
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
}

// NewAggregator creates a new metrics aggregator worker
func NewAggregator(source StatsSource, logger *slog.Logger, interval time.Duration) *Aggregator {
	if interval == 0 {
		interval = 1 * time.Minute
	}

	return &Aggregator{
		source:   source,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start runs the aggregation loop until ctx is cancelled or Stop is called
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("metrics aggregator started", "interval", a.interval)
	a.aggregate(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("metrics aggregator stopped")
			return
		case <-a.done:
			a.logger.Info("metrics aggregator stopped")
			return
		case <-ticker.C:
			a.aggregate(ctx)
		}
	}
}

// Stop gracefully shuts down the aggregator
func (a *Aggregator) Stop() {
	close(a.done)
}

func (a *Aggregator) aggregate(ctx context.Context) {
	snap, err := a.source.Snapshot(ctx, a.now())
	if err != nil {
		a.logger.Error("failed to compute metrics snapshot", "error", err)
		return
	}

	ActiveGuests.Set(float64(snap.ActiveGuests))
	CheckedInToday.Set(float64(snap.CheckedInToday))
}
