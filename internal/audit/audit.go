package audit

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// EventType names an action over biometric data or attendance.
type EventType string

const (
	EventFaceEnrolled  EventType = "FACE_ENROLLED"
	EventFaceRejected  EventType = "FACE_REJECTED"
	EventCheckIn       EventType = "CHECK_IN"
	EventCheckOut      EventType = "CHECK_OUT"
	EventGuestEnrolled EventType = "GUEST_ENROLLED"
	EventTokenIssued   EventType = "TOKEN_ISSUED"
	EventTokenRevoked  EventType = "TOKEN_REVOKED"
	EventGuestsPurged  EventType = "GUESTS_PURGED"
)

var ErrMissingType = errors.New("audit event has no type")

// Event is one audited action. Subject is zero for system events such as
// purges. The subject's bearer token is never written.
type Event struct {
	ID      uuid.UUID
	At      time.Time
	Type    EventType
	Subject domain.Identity
	Success bool
	Err     error
	Details map[string]string
}

// Logger records audit events.
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger writes events as "audit_event" records. Failures log at warn.
type SlogLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
		now:    time.Now,
	}
}

func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.Type == "" {
		return ErrMissingType
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.At.IsZero() {
		event.At = l.now()
	}

	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.Type)),
		slog.Time("at", event.At.UTC()),
		slog.Bool("success", event.Success),
	}
	if event.Subject.Valid() {
		attrs = append(attrs,
			slog.String("identity_kind", string(event.Subject.Kind)),
			slog.String("identity_id", event.Subject.ID.String()),
		)
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	if len(event.Details) > 0 {
		keys := make([]string, 0, len(event.Details))
		for k := range event.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		details := make([]any, 0, len(keys))
		for _, k := range keys {
			details = append(details, slog.String(k, event.Details[k]))
		}
		attrs = append(attrs, slog.Group("details", details...))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "audit_event", attrs...)
	return nil
}

// NoOpLogger discards events.
type NoOpLogger struct{}

func (NoOpLogger) Log(context.Context, Event) error {
	return nil
}
