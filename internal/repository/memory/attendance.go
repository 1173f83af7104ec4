package memory

import (
	"context"
	"sort"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// AttendanceStore serializes writes per (identity, date). The key lock spans
// the whole check-then-write; db.mu is only held around map access, so
// different identities and dates never wait on each other's writes.
type AttendanceStore struct {
	db *DB
}

func (s *AttendanceStore) CreateIfAbsent(ctx context.Context, rec *domain.AttendanceRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := domain.KeyFor(rec.Identity(), rec.Date)
	unlock := s.db.keys.Lock(key.String())
	defer unlock()

	if _, exists := s.db.attendanceRecord(key); exists {
		return false, nil
	}

	stored := *cloneRecord(*rec)

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	// the guest may have been purged since the read above
	if rec.IdentityKind == domain.IdentityGuest {
		if _, ok := s.db.guests[rec.IdentityID]; !ok {
			return false, domain.ErrGuestNotFound
		}
	}
	s.db.attendance[key] = stored
	return true, nil
}

func (s *AttendanceStore) Get(ctx context.Context, key domain.AttendanceKey) (*domain.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rec, ok := s.db.attendance[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *AttendanceStore) CompleteCheckOut(ctx context.Context, rec *domain.AttendanceRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := domain.KeyFor(rec.Identity(), rec.Date)
	unlock := s.db.keys.Lock(key.String())
	defer unlock()

	stored, ok := s.db.attendanceRecord(key)
	if !ok || stored.CheckOutTime != nil {
		return false, nil
	}

	stored.CheckOutTime = rec.CheckOutTime
	stored.HoursWorked = rec.HoursWorked
	stored.Status = rec.Status
	stored.UpdatedAt = rec.UpdatedAt
	stored = *cloneRecord(stored)

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.attendance[key]; !ok {
		return false, nil
	}
	s.db.attendance[key] = stored
	return true, nil
}

func (s *AttendanceStore) ListByIdentity(ctx context.Context, identity domain.Identity, limit int) ([]*domain.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	records := make([]*domain.AttendanceRecord, 0)
	for key, rec := range s.db.attendance {
		if key.Kind == identity.Kind && key.ID == identity.ID {
			records = append(records, cloneRecord(rec))
		}
	}
	s.db.mu.RUnlock()

	sortNewestFirst(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *AttendanceStore) ListByDate(ctx context.Context, date domain.Date) ([]*domain.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	records := make([]*domain.AttendanceRecord, 0)
	for key, rec := range s.db.attendance {
		if key.Date == date {
			records = append(records, cloneRecord(rec))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CheckInTime.Before(*records[j].CheckInTime)
	})
	return records, nil
}
