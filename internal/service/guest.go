package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/audit"
	"github.com/saturnino-fabrica-de-software/presenca/internal/biometric"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
)

const tokenBytes = 32

// GuestEnrollment is the input of a guest self-enrollment.
type GuestEnrollment struct {
	Name    string
	Email   string
	Purpose string
	Consent bool
	Images  [][]byte
}

// GuestStatus is a guest profile with today's attendance, if any.
type GuestStatus struct {
	Guest *domain.Guest            `json:"guest"`
	Today *domain.AttendanceRecord `json:"today"`
}

// GuestService runs the guest lifecycle: enrollment, bearer tokens,
// attendance through the shared state machine, and retention cleanup.
type GuestService struct {
	guests       GuestStore
	descriptors  DescriptorStore
	tokens       TokenStore
	enrollment   *EnrollmentService
	verification *VerificationService
	attendance   *AttendanceService
	activity     ActivityRecorder
	audit        audit.Logger
	logger       *slog.Logger

	tokenTTL  time.Duration
	retention time.Duration
	dummyHash string
}

func NewGuestService(
	guests GuestStore,
	descriptors DescriptorStore,
	tokens TokenStore,
	enrollment *EnrollmentService,
	verification *VerificationService,
	attendance *AttendanceService,
	logger *slog.Logger,
) *GuestService {
	return &GuestService{
		guests:       guests,
		descriptors:  descriptors,
		tokens:       tokens,
		enrollment:   enrollment,
		verification: verification,
		attendance:   attendance,
		audit:        &audit.NoOpLogger{},
		logger:       logger,
		tokenTTL:     domain.DefaultTokenTTL,
		retention:    domain.DefaultGuestRetention,
		dummyHash:    hashToken("presenca-dummy-token"),
	}
}

func (s *GuestService) WithTokenTTL(ttl time.Duration) *GuestService {
	s.tokenTTL = ttl
	return s
}

func (s *GuestService) WithRetention(retention time.Duration) *GuestService {
	s.retention = retention
	return s
}

// WithActivityRecorder defers retention refreshes to r instead of writing
// them inline.
func (s *GuestService) WithActivityRecorder(r ActivityRecorder) *GuestService {
	s.activity = r
	return s
}

func (s *GuestService) WithAuditLogger(l audit.Logger) *GuestService {
	s.audit = l
	return s
}

// Enroll registers a guest, or re-enrolls the guest owning Email, and issues
// a token. Re-enrollment only succeeds when the new captures match the face
// already on file.
func (s *GuestService) Enroll(ctx context.Context, in GuestEnrollment, now time.Time) (*domain.Guest, domain.IssuedToken, error) {
	if !in.Consent {
		return nil, domain.IssuedToken{}, domain.ErrConsentRequired
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" {
		return nil, domain.IssuedToken{}, domain.ErrValidationFailed.WithMessage("Name and email are required")
	}

	set, err := s.enrollment.Enroll(ctx, in.Images)
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}

	consentAt := now
	existing, err := s.guests.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, domain.ErrGuestNotFound):
		existing = nil
	case err != nil:
		return nil, domain.IssuedToken{}, fmt.Errorf("get guest by email: %w", err)
	}

	var guest *domain.Guest
	if existing != nil && !existing.IsExpired(now) {
		if err := s.confirmSameFace(ctx, existing, set); err != nil {
			return nil, domain.IssuedToken{}, err
		}

		guest = existing
		guest.Name = in.Name
		guest.Purpose = in.Purpose
		guest.Consent = true
		guest.ConsentAt = &consentAt
		guest.LastActivityAt = now
		guest.ExpiresAt = now.Add(s.retention)

		if err := s.guests.Reenroll(ctx, guest, set); err != nil {
			return nil, domain.IssuedToken{}, fmt.Errorf("guest %s: reenroll: %w", guest.ID, err)
		}
	} else {
		if existing != nil {
			// retention elapsed but cleanup has not run yet
			if _, err := s.guests.DeleteExpired(ctx, now); err != nil {
				return nil, domain.IssuedToken{}, fmt.Errorf("purge expired guest: %w", err)
			}
		}

		guest = &domain.Guest{
			ID:             uuid.New(),
			Name:           in.Name,
			Email:          in.Email,
			Purpose:        in.Purpose,
			Consent:        true,
			ConsentAt:      &consentAt,
			CreatedAt:      now,
			LastActivityAt: now,
			ExpiresAt:      now.Add(s.retention),
		}

		if err := s.guests.Create(ctx, guest, set); err != nil {
			return nil, domain.IssuedToken{}, fmt.Errorf("create guest: %w", err)
		}
	}

	issued, err := s.IssueToken(ctx, guest.ID, now)
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}

	s.logAudit(ctx, audit.EventGuestEnrolled, guest.ID, map[string]string{
		"captures": strconv.Itoa(len(set)),
	})

	return guest, issued, nil
}

// confirmSameFace checks the mean of a fresh set against the stored one.
func (s *GuestService) confirmSameFace(ctx context.Context, guest *domain.Guest, set domain.DescriptorSet) error {
	stored, err := s.descriptors.Get(ctx, domain.GuestIdentity(guest.ID, ""))
	if errors.Is(err, domain.ErrNotEnrolled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("guest %s: get descriptors: %w", guest.ID, err)
	}

	mean, err := biometric.Average(set)
	if err != nil {
		return fmt.Errorf("average descriptors: %w", err)
	}

	result, err := biometric.MatchBest(mean, stored, s.verification.threshold)
	if err != nil {
		return fmt.Errorf("match descriptors: %w", err)
	}
	if !result.Match {
		return domain.ErrFaceMismatch
	}
	return nil
}

// Resume issues a fresh token to a returning guest whose capture matches
// the enrolled set. Unknown emails fail exactly like a mismatch.
func (s *GuestService) Resume(ctx context.Context, email string, image []byte, now time.Time) (*domain.Guest, domain.IssuedToken, error) {
	guest, err := s.guests.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrGuestNotFound) {
		return nil, domain.IssuedToken{}, domain.ErrFaceMismatch
	}
	if err != nil {
		return nil, domain.IssuedToken{}, fmt.Errorf("get guest by email: %w", err)
	}
	if guest.IsExpired(now) {
		return nil, domain.IssuedToken{}, domain.ErrFaceMismatch
	}

	if err := verifyIdentity(ctx, s.descriptors, s.verification, s.audit, s.logger, domain.GuestIdentity(guest.ID, ""), image); err != nil {
		if errors.Is(err, domain.ErrNotEnrolled) {
			return nil, domain.IssuedToken{}, domain.ErrFaceMismatch
		}
		return nil, domain.IssuedToken{}, err
	}

	issued, err := s.IssueToken(ctx, guest.ID, now)
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}

	s.recordActivity(ctx, guest.ID, now)

	return guest, issued, nil
}

// IssueToken creates a random bearer token for the guest, replacing any
// previous one. Only the token's hash is stored.
func (s *GuestService) IssueToken(ctx context.Context, guestID uuid.UUID, now time.Time) (domain.IssuedToken, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return domain.IssuedToken{}, fmt.Errorf("generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	stored := &domain.CheckInToken{
		Hash:      hashToken(token),
		GuestID:   guestID,
		ExpiresAt: now.Add(s.tokenTTL),
		CreatedAt: now,
	}

	if err := s.tokens.Save(ctx, stored); err != nil {
		return domain.IssuedToken{}, fmt.Errorf("guest %s: save token: %w", guestID, err)
	}

	s.logAudit(ctx, audit.EventTokenIssued, guestID, nil)

	return domain.IssuedToken{Token: token, ExpiresAt: stored.ExpiresAt}, nil
}

// ValidateToken resolves a bearer token to its guest. Unknown and expired
// tokens go through the same hash, lookup, compare and expiry steps.
func (s *GuestService) ValidateToken(ctx context.Context, token string, now time.Time) (*domain.Guest, error) {
	hash := hashToken(token)

	stored, err := s.tokens.GetByHash(ctx, hash)
	if err != nil && !errors.Is(err, domain.ErrInvalidToken) {
		return nil, fmt.Errorf("get token: %w", err)
	}
	found := err == nil && stored != nil

	expected := s.dummyHash
	expiresAt := now
	if found {
		expected = stored.Hash
		expiresAt = stored.ExpiresAt
	}

	hashOK := subtle.ConstantTimeCompare([]byte(hash), []byte(expected)) == 1
	expired := now.After(expiresAt)

	if token == "" || !found || !hashOK {
		metrics.TokenValidations.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, domain.ErrInvalidToken
	}
	if expired {
		metrics.TokenValidations.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, domain.ErrTokenExpired
	}

	guest, err := s.guests.GetByID(ctx, stored.GuestID)
	if errors.Is(err, domain.ErrGuestNotFound) {
		metrics.TokenValidations.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("guest %s: get: %w", stored.GuestID, err)
	}
	if guest.IsExpired(now) {
		metrics.TokenValidations.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, domain.ErrTokenExpired
	}

	metrics.TokenValidations.WithLabelValues(metrics.ResultValid).Inc()
	s.recordActivity(ctx, guest.ID, now)

	return guest, nil
}

// Logout revokes the token. Revoking an unknown token is not an error.
func (s *GuestService) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Delete(ctx, hashToken(token)); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	s.logAudit(ctx, audit.EventTokenRevoked, uuid.Nil, nil)
	return nil
}

// Touch pushes the guest's retention deadline to now plus retention.
func (s *GuestService) Touch(ctx context.Context, guestID uuid.UUID, now time.Time) error {
	if err := s.guests.Touch(ctx, guestID, now, now.Add(s.retention)); err != nil {
		return fmt.Errorf("guest %s: touch: %w", guestID, err)
	}
	return nil
}

func (s *GuestService) CheckIn(ctx context.Context, token string, image []byte, now time.Time) (*domain.AttendanceRecord, error) {
	identity, err := s.verifiedIdentity(ctx, token, image, now)
	if err != nil {
		return nil, err
	}
	return s.attendance.CheckIn(ctx, identity, now)
}

func (s *GuestService) CheckOut(ctx context.Context, token string, image []byte, now time.Time) (*domain.AttendanceRecord, error) {
	identity, err := s.verifiedIdentity(ctx, token, image, now)
	if err != nil {
		return nil, err
	}
	return s.attendance.CheckOut(ctx, identity, now)
}

func (s *GuestService) Status(ctx context.Context, token string, now time.Time) (*GuestStatus, error) {
	guest, err := s.ValidateToken(ctx, token, now)
	if err != nil {
		return nil, err
	}

	today, err := s.attendance.Today(ctx, domain.GuestIdentity(guest.ID, token), now)
	if err != nil {
		return nil, err
	}

	return &GuestStatus{Guest: guest, Today: today}, nil
}

func (s *GuestService) History(ctx context.Context, token string, limit int, now time.Time) ([]*domain.AttendanceRecord, error) {
	guest, err := s.ValidateToken(ctx, token, now)
	if err != nil {
		return nil, err
	}
	return s.attendance.History(ctx, domain.GuestIdentity(guest.ID, token), limit)
}

// RunCleanup removes expired tokens and guests whose retention ended before
// now, returning the number of guests deleted.
func (s *GuestService) RunCleanup(ctx context.Context, now time.Time) (int64, error) {
	tokens, err := s.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	deleted, err := s.guests.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired guests: %w", err)
	}

	s.logger.InfoContext(ctx, "guest cleanup finished",
		slog.Int64("guests_deleted", deleted),
		slog.Int64("tokens_deleted", tokens),
	)
	s.logAudit(ctx, audit.EventGuestsPurged, uuid.Nil, map[string]string{
		"guests": strconv.FormatInt(deleted, 10),
		"tokens": strconv.FormatInt(tokens, 10),
	})

	return deleted, nil
}

func (s *GuestService) verifiedIdentity(ctx context.Context, token string, image []byte, now time.Time) (domain.Identity, error) {
	guest, err := s.ValidateToken(ctx, token, now)
	if err != nil {
		return domain.Identity{}, err
	}

	identity := domain.GuestIdentity(guest.ID, token)
	if err := verifyIdentity(ctx, s.descriptors, s.verification, s.audit, s.logger, identity, image); err != nil {
		return domain.Identity{}, err
	}
	return identity, nil
}

func (s *GuestService) recordActivity(ctx context.Context, guestID uuid.UUID, now time.Time) {
	if s.activity != nil {
		s.activity.Record(guestID, now)
		return
	}
	if err := s.Touch(ctx, guestID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh guest retention", slog.String("error", err.Error()))
	}
}

func (s *GuestService) logAudit(ctx context.Context, event audit.EventType, guestID uuid.UUID, meta map[string]string) {
	e := audit.Event{
		Type:    event,
		Success: true,
		Details: meta,
	}
	if guestID != uuid.Nil {
		e.Subject = domain.GuestIdentity(guestID, "")
	}
	if err := s.audit.Log(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
