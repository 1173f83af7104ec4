package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saturnino-fabrica-de-software/presenca/internal/audit"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// UserService runs face enrollment and face-gated attendance for
// registered users.
type UserService struct {
	users        UserStore
	descriptors  DescriptorStore
	enrollment   *EnrollmentService
	verification *VerificationService
	attendance   *AttendanceService
	audit        audit.Logger
	logger       *slog.Logger
}

func NewUserService(
	users UserStore,
	descriptors DescriptorStore,
	enrollment *EnrollmentService,
	verification *VerificationService,
	attendance *AttendanceService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:        users,
		descriptors:  descriptors,
		enrollment:   enrollment,
		verification: verification,
		attendance:   attendance,
		audit:        &audit.NoOpLogger{},
		logger:       logger,
	}
}

func (s *UserService) WithAuditLogger(l audit.Logger) *UserService {
	s.audit = l
	return s
}

// EnrollFace replaces the user's descriptor set with one built from images.
func (s *UserService) EnrollFace(ctx context.Context, user *domain.User, images [][]byte) error {
	set, err := s.enrollment.Enroll(ctx, images)
	if err != nil {
		return err
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("user %s: upsert: %w", user.ID, err)
	}

	identity := domain.RegisteredUser(user.ID)
	if err := s.descriptors.Replace(ctx, identity, set); err != nil {
		return fmt.Errorf("%s: replace descriptors: %w", identity.Key(), err)
	}
	user.Enrolled = true

	if err := s.audit.Log(ctx, audit.Event{
		Type:    audit.EventFaceEnrolled,
		Subject: identity,
		Success: true,
		Details: map[string]string{"captures": strconv.Itoa(len(set))},
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}

	return nil
}

func (s *UserService) CheckIn(ctx context.Context, identity domain.Identity, image []byte, now time.Time) (*domain.AttendanceRecord, error) {
	if err := verifyIdentity(ctx, s.descriptors, s.verification, s.audit, s.logger, identity, image); err != nil {
		return nil, err
	}
	return s.attendance.CheckIn(ctx, identity, now)
}

func (s *UserService) CheckOut(ctx context.Context, identity domain.Identity, image []byte, now time.Time) (*domain.AttendanceRecord, error) {
	if err := verifyIdentity(ctx, s.descriptors, s.verification, s.audit, s.logger, identity, image); err != nil {
		return nil, err
	}
	return s.attendance.CheckOut(ctx, identity, now)
}
