package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/audit"
	"github.com/saturnino-fabrica-de-software/presenca/internal/biometric"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
)

const (
	DefaultLateCutoff   = 9 * time.Hour
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 366
)

// AttendanceService owns the check-in/check-out state machine. Dates and
// lateness are evaluated in the configured location.
type AttendanceService struct {
	store  AttendanceStore
	loc    *time.Location
	cutoff time.Duration
	audit  audit.Logger
	logger *slog.Logger
}

func NewAttendanceService(store AttendanceStore, logger *slog.Logger) *AttendanceService {
	return &AttendanceService{
		store:  store,
		loc:    time.Local,
		cutoff: DefaultLateCutoff,
		audit:  &audit.NoOpLogger{},
		logger: logger,
	}
}

func (s *AttendanceService) WithLocation(loc *time.Location) *AttendanceService {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// WithLateCutoff sets the time of day after which a check-in is late.
func (s *AttendanceService) WithLateCutoff(cutoff time.Duration) *AttendanceService {
	s.cutoff = cutoff
	return s
}

func (s *AttendanceService) WithAuditLogger(l audit.Logger) *AttendanceService {
	s.audit = l
	return s
}

// Location returns the zone attendance dates are computed in.
func (s *AttendanceService) Location() *time.Location {
	return s.loc
}

// IsLate reports whether t falls strictly after the cutoff on its local day.
// Wall-clock time is compared so DST transitions do not shift the cutoff.
func (s *AttendanceService) IsLate(t time.Time) bool {
	local := t.In(s.loc)
	sinceMidnight := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
	return sinceMidnight > s.cutoff
}

func (s *AttendanceService) CheckIn(ctx context.Context, identity domain.Identity, now time.Time) (*domain.AttendanceRecord, error) {
	if !identity.Valid() {
		return nil, domain.ErrBadRequest.WithMessage("Invalid identity")
	}

	local := now.In(s.loc)
	status := domain.StatusPresent
	if s.IsLate(local) {
		status = domain.StatusLate
	}

	rec := &domain.AttendanceRecord{
		ID:           uuid.New(),
		IdentityKind: identity.Kind,
		IdentityID:   identity.ID,
		Date:         domain.DateOf(local),
		CheckInTime:  &local,
		Status:       status,
		HoursWorked:  0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.store.CreateIfAbsent(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("%s: check in: %w", identity.Key(), err)
	}
	if !created {
		return nil, domain.ErrAlreadyCheckedIn
	}

	metrics.AttendanceEvents.WithLabelValues("check_in", string(identity.Kind), string(status)).Inc()
	s.logAudit(ctx, audit.EventCheckIn, rec)

	return rec, nil
}

// CheckOut closes today's record. Lateness recorded at check-in is kept.
func (s *AttendanceService) CheckOut(ctx context.Context, identity domain.Identity, now time.Time) (*domain.AttendanceRecord, error) {
	if !identity.Valid() {
		return nil, domain.ErrBadRequest.WithMessage("Invalid identity")
	}

	local := now.In(s.loc)
	key := domain.KeyFor(identity, domain.DateOf(local))

	rec, err := s.store.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoCheckIn
	}
	if err != nil {
		return nil, fmt.Errorf("%s: get attendance: %w", identity.Key(), err)
	}
	if rec.CheckedOut() {
		return nil, domain.ErrAlreadyCheckedOut
	}
	if rec.CheckInTime == nil {
		return nil, domain.ErrNoCheckIn
	}

	checkIn := *rec.CheckInTime
	checkOut := local
	if checkOut.Before(checkIn) {
		checkOut = checkIn
	}

	hours := biometric.Round2(checkOut.Sub(checkIn).Hours())
	if hours < 0 {
		hours = 0
	}

	status := domain.StatusPresent
	if rec.Status == domain.StatusLate {
		status = domain.StatusLate
	}

	updated := *rec
	updated.CheckOutTime = &checkOut
	updated.HoursWorked = hours
	updated.Status = status
	updated.UpdatedAt = now

	ok, err := s.store.CompleteCheckOut(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("%s: check out: %w", identity.Key(), err)
	}
	if !ok {
		return nil, domain.ErrAlreadyCheckedOut
	}

	metrics.AttendanceEvents.WithLabelValues("check_out", string(identity.Kind), string(status)).Inc()
	s.logAudit(ctx, audit.EventCheckOut, &updated)

	return &updated, nil
}

// Today returns the identity's record for the current local date, or nil.
func (s *AttendanceService) Today(ctx context.Context, identity domain.Identity, now time.Time) (*domain.AttendanceRecord, error) {
	key := domain.KeyFor(identity, domain.DateOf(now.In(s.loc)))

	rec, err := s.store.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: get attendance: %w", identity.Key(), err)
	}
	return rec, nil
}

// History lists the identity's records, newest first.
func (s *AttendanceService) History(ctx context.Context, identity domain.Identity, limit int) ([]*domain.AttendanceRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	records, err := s.store.ListByIdentity(ctx, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: list attendance: %w", identity.Key(), err)
	}
	return records, nil
}

// ByDate lists every record of a date.
func (s *AttendanceService) ByDate(ctx context.Context, date domain.Date) ([]*domain.AttendanceRecord, error) {
	records, err := s.store.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list attendance for %s: %w", date, err)
	}
	return records, nil
}

func (s *AttendanceService) logAudit(ctx context.Context, event audit.EventType, rec *domain.AttendanceRecord) {
	err := s.audit.Log(ctx, audit.Event{
		Type:    event,
		Subject: rec.Identity(),
		Success: true,
		Details: map[string]string{
			"date":   rec.Date.String(),
			"status": string(rec.Status),
		},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}
}
