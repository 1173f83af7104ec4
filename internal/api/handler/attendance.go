package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// UserService runs face enrollment and face-gated attendance for users
type UserService interface {
	EnrollFace(ctx context.Context, user *domain.User, images [][]byte) error
	CheckIn(ctx context.Context, identity domain.Identity, image []byte, now time.Time) (*domain.AttendanceRecord, error)
	CheckOut(ctx context.Context, identity domain.Identity, image []byte, now time.Time) (*domain.AttendanceRecord, error)
}

// AttendanceReader lists attendance records
type AttendanceReader interface {
	Today(ctx context.Context, identity domain.Identity, now time.Time) (*domain.AttendanceRecord, error)
	History(ctx context.Context, identity domain.Identity, limit int) ([]*domain.AttendanceRecord, error)
	ByDate(ctx context.Context, date domain.Date) ([]*domain.AttendanceRecord, error)
}

// AttendanceHandler handles attendance requests of registered users
type AttendanceHandler struct {
	users      UserService
	attendance AttendanceReader
	logger     *slog.Logger
	now        func() time.Time
}

func NewAttendanceHandler(users UserService, attendance AttendanceReader, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		users:      users,
		attendance: attendance,
		logger:     logger,
		now:        time.Now,
	}
}

// TodayResponse carries today's record, null when the user has not checked in
type TodayResponse struct {
	Record *domain.AttendanceRecord `json:"record"`
}

// EnrollFace PUT /v1/users/me/face - replace the caller's enrolled face
func (h *AttendanceHandler) EnrollFace(c *fiber.Ctx) error {
	user, err := middleware.GetUser(c)
	if err != nil {
		return err
	}

	images, err := extractAndValidateImages(c)
	if err != nil {
		return err
	}

	if err := h.users.EnrollFace(c.Context(), user, images); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CheckIn POST /v1/attendance/check-in
func (h *AttendanceHandler) CheckIn(c *fiber.Ctx) error {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		return err
	}

	image, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	rec, err := h.users.CheckIn(c.Context(), identity, image, h.now())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(rec)
}

// CheckOut POST /v1/attendance/check-out
func (h *AttendanceHandler) CheckOut(c *fiber.Ctx) error {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		return err
	}

	image, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	rec, err := h.users.CheckOut(c.Context(), identity, image, h.now())
	if err != nil {
		return err
	}

	return c.JSON(rec)
}

// Today GET /v1/attendance/today
func (h *AttendanceHandler) Today(c *fiber.Ctx) error {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		return err
	}

	rec, err := h.attendance.Today(c.Context(), identity, h.now())
	if err != nil {
		return err
	}

	return c.JSON(TodayResponse{Record: rec})
}

// MyRecords GET /v1/attendance/my-records?limit=N
func (h *AttendanceHandler) MyRecords(c *fiber.Ctx) error {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		return err
	}

	records, err := h.attendance.History(c.Context(), identity, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	return c.JSON(historyResponse(records))
}

// ByDate GET /v1/attendance/date/:date - every record of a day (admin)
func (h *AttendanceHandler) ByDate(c *fiber.Ctx) error {
	date, err := domain.ParseDate(c.Params("date"))
	if err != nil {
		return domain.ErrValidationFailed.WithMessage("date must be formatted as YYYY-MM-DD").WithError(err)
	}

	records, err := h.attendance.ByDate(c.Context(), date)
	if err != nil {
		return err
	}

	return c.JSON(historyResponse(records))
}
