package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GuestToucher refreshes a guest's retention deadline.
type GuestToucher interface {
	Touch(ctx context.Context, guestID uuid.UUID, now time.Time) error
}

type activity struct {
	guestID uuid.UUID
	at      time.Time
}

// ActivityWorker applies guest retention refreshes asynchronously, debounced
// per guest and written in batches.
type ActivityWorker struct {
	toucher GuestToucher
	logger  *slog.Logger

	// Channel with buffer to prevent blocking
	updateCh chan activity

	// Debounce: track recently refreshed guests
	recentlyUpdated map[uuid.UUID]time.Time
	mu              sync.RWMutex

	// Config
	debounceInterval time.Duration
	batchInterval    time.Duration
	maxBatchSize     int

	// Lifecycle
	done chan struct{}
	wg   sync.WaitGroup
}

// ActivityWorkerConfig holds configuration for the worker
type ActivityWorkerConfig struct {
	BufferSize       int           // Channel buffer size (default: 1000)
	DebounceInterval time.Duration // Min interval between refreshes of one guest (default: 1 minute)
	BatchInterval    time.Duration // Interval to process batch (default: 5 seconds)
	MaxBatchSize     int           // Max guests per batch (default: 100)
}

// DefaultActivityWorkerConfig returns default configuration
func DefaultActivityWorkerConfig() ActivityWorkerConfig {
	return ActivityWorkerConfig{
		BufferSize:       1000,
		DebounceInterval: 1 * time.Minute,
		BatchInterval:    5 * time.Second,
		MaxBatchSize:     100,
	}
}

// NewActivityWorker creates a new worker
func NewActivityWorker(toucher GuestToucher, logger *slog.Logger, config ActivityWorkerConfig) *ActivityWorker {
	if config.BufferSize == 0 {
		config.BufferSize = 1000
	}
	if config.DebounceInterval == 0 {
		config.DebounceInterval = 1 * time.Minute
	}
	if config.BatchInterval == 0 {
		config.BatchInterval = 5 * time.Second
	}
	if config.MaxBatchSize == 0 {
		config.MaxBatchSize = 100
	}

	return &ActivityWorker{
		toucher:          toucher,
		logger:           logger,
		updateCh:         make(chan activity, config.BufferSize),
		recentlyUpdated:  make(map[uuid.UUID]time.Time),
		debounceInterval: config.DebounceInterval,
		batchInterval:    config.BatchInterval,
		maxBatchSize:     config.MaxBatchSize,
		done:             make(chan struct{}),
	}
}

// Start begins the background worker
func (w *ActivityWorker) Start() {
	w.wg.Add(1)
	go w.run()
	w.logger.Info("activity worker started",
		"buffer_size", cap(w.updateCh),
		"debounce_interval", w.debounceInterval,
		"batch_interval", w.batchInterval,
	)
}

// Stop flushes pending refreshes and shuts down the worker
func (w *ActivityWorker) Stop() {
	close(w.done)
	w.wg.Wait()
	w.logger.Info("activity worker stopped")
}

// Record queues a retention refresh for the guest.
// Non-blocking: if the buffer is full, the refresh is dropped.
func (w *ActivityWorker) Record(guestID uuid.UUID, at time.Time) {
	w.mu.RLock()
	lastUpdate, exists := w.recentlyUpdated[guestID]
	w.mu.RUnlock()

	if exists && at.Sub(lastUpdate) < w.debounceInterval {
		return
	}

	select {
	case w.updateCh <- activity{guestID: guestID, at: at}:
	default:
		w.logger.Debug("activity refresh dropped - buffer full", "guest_id", guestID)
	}
}

func (w *ActivityWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.batchInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(5 * time.Minute)
	defer cleanupTicker.Stop()

	var batch []activity

	for {
		select {
		case <-w.done:
			w.drain(&batch)
			if len(batch) > 0 {
				w.processBatch(batch)
			}
			return

		case a := <-w.updateCh:
			batch = append(batch, a)
			if len(batch) >= w.maxBatchSize {
				w.processBatch(batch)
				batch = nil
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.processBatch(batch)
				batch = nil
			}

		case <-cleanupTicker.C:
			w.cleanupDebounceMap()
		}
	}
}

func (w *ActivityWorker) drain(batch *[]activity) {
	for {
		select {
		case a := <-w.updateCh:
			*batch = append(*batch, a)
		default:
			return
		}
	}
}

func (w *ActivityWorker) processBatch(batch []activity) {
	if len(batch) == 0 {
		return
	}

	// Deduplicate, keeping the latest activity per guest
	latest := make(map[uuid.UUID]time.Time, len(batch))
	order := make([]uuid.UUID, 0, len(batch))
	for _, a := range batch {
		prev, ok := latest[a.guestID]
		if !ok {
			order = append(order, a.guestID)
		}
		if !ok || a.at.After(prev) {
			latest[a.guestID] = a.at
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var successCount int
	for _, guestID := range order {
		at := latest[guestID]
		if err := w.toucher.Touch(ctx, guestID, at); err != nil {
			w.logger.Error("failed to refresh guest retention", "guest_id", guestID, "error", err)
			continue
		}

		w.mu.Lock()
		w.recentlyUpdated[guestID] = at
		w.mu.Unlock()

		successCount++
	}

	if successCount > 0 {
		w.logger.Debug("batch guest activity refresh", "count", successCount)
	}
}

func (w *ActivityWorker) cleanupDebounceMap() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	for guestID, lastUpdate := range w.recentlyUpdated {
		if now.Sub(lastUpdate) > 2*w.debounceInterval {
			delete(w.recentlyUpdated, guestID)
		}
	}
}
