package handler

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/service"
)

// GuestService is the guest lifecycle as seen by the HTTP layer
type GuestService interface {
	Enroll(ctx context.Context, in service.GuestEnrollment, now time.Time) (*domain.Guest, domain.IssuedToken, error)
	Resume(ctx context.Context, email string, image []byte, now time.Time) (*domain.Guest, domain.IssuedToken, error)
	CheckIn(ctx context.Context, token string, image []byte, now time.Time) (*domain.AttendanceRecord, error)
	CheckOut(ctx context.Context, token string, image []byte, now time.Time) (*domain.AttendanceRecord, error)
	Status(ctx context.Context, token string, now time.Time) (*service.GuestStatus, error)
	History(ctx context.Context, token string, limit int, now time.Time) ([]*domain.AttendanceRecord, error)
	Logout(ctx context.Context, token string) error
}

// GuestHandler handles guest self-service requests
type GuestHandler struct {
	service GuestService
	logger  *slog.Logger
	now     func() time.Time
}

func NewGuestHandler(service GuestService, logger *slog.Logger) *GuestHandler {
	return &GuestHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// EnrollGuestRequest holds the text fields of an enrollment form
type EnrollGuestRequest struct {
	Name    string `form:"name" validate:"required,max=120"`
	Email   string `form:"email" validate:"required,email,max=254"`
	Purpose string `form:"purpose" validate:"max=500"`
	Consent bool   `form:"consent"`
}

// ResumeGuestRequest holds the text fields of a resume form
type ResumeGuestRequest struct {
	Email string `form:"email" validate:"required,email,max=254"`
}

// GuestSessionResponse is returned whenever a guest token is issued
type GuestSessionResponse struct {
	Guest          *domain.Guest `json:"guest"`
	Token          string        `json:"token"`
	TokenExpiresAt time.Time     `json:"token_expires_at"`
}

// HistoryResponse wraps an attendance listing
type HistoryResponse struct {
	Records []*domain.AttendanceRecord `json:"records"`
	Count   int                        `json:"count"`
}

// Enroll POST /v1/guests/enroll - self-enroll or re-enroll a guest
func (h *GuestHandler) Enroll(c *fiber.Ctx) error {
	req := EnrollGuestRequest{
		Name:    strings.TrimSpace(c.FormValue("name")),
		Email:   strings.TrimSpace(c.FormValue("email")),
		Purpose: strings.TrimSpace(c.FormValue("purpose")),
		Consent: parseConsent(c.FormValue("consent")),
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	if !req.Consent {
		return domain.ErrConsentRequired
	}

	images, err := extractAndValidateImages(c)
	if err != nil {
		return err
	}

	guest, token, err := h.service.Enroll(c.Context(), service.GuestEnrollment{
		Name:    req.Name,
		Email:   req.Email,
		Purpose: req.Purpose,
		Consent: req.Consent,
		Images:  images,
	}, h.now())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(sessionResponse(guest, token))
}

// Resume POST /v1/guests/resume - issue a fresh token to a returning guest
func (h *GuestHandler) Resume(c *fiber.Ctx) error {
	req := ResumeGuestRequest{Email: strings.TrimSpace(c.FormValue("email"))}
	if err := validateRequest(req); err != nil {
		return err
	}

	image, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	guest, token, err := h.service.Resume(c.Context(), req.Email, image, h.now())
	if err != nil {
		return err
	}

	return c.JSON(sessionResponse(guest, token))
}

// CheckIn POST /v1/guests/check-in
func (h *GuestHandler) CheckIn(c *fiber.Ctx) error {
	token, err := middleware.GetGuestToken(c)
	if err != nil {
		return err
	}

	image, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	rec, err := h.service.CheckIn(c.Context(), token, image, h.now())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(rec)
}

// CheckOut POST /v1/guests/check-out
func (h *GuestHandler) CheckOut(c *fiber.Ctx) error {
	token, err := middleware.GetGuestToken(c)
	if err != nil {
		return err
	}

	image, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	rec, err := h.service.CheckOut(c.Context(), token, image, h.now())
	if err != nil {
		return err
	}

	return c.JSON(rec)
}

// Status GET /v1/guests/status - profile and today's record
func (h *GuestHandler) Status(c *fiber.Ctx) error {
	token, err := middleware.GetGuestToken(c)
	if err != nil {
		return err
	}

	status, err := h.service.Status(c.Context(), token, h.now())
	if err != nil {
		return err
	}

	return c.JSON(status)
}

// History GET /v1/guests/history?limit=N
func (h *GuestHandler) History(c *fiber.Ctx) error {
	token, err := middleware.GetGuestToken(c)
	if err != nil {
		return err
	}

	records, err := h.service.History(c.Context(), token, c.QueryInt("limit", 0), h.now())
	if err != nil {
		return err
	}

	return c.JSON(historyResponse(records))
}

// Logout POST /v1/guests/logout - revoke the bearer token
func (h *GuestHandler) Logout(c *fiber.Ctx) error {
	token, err := middleware.GetGuestToken(c)
	if err != nil {
		return err
	}

	if err := h.service.Logout(c.Context(), token); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func sessionResponse(guest *domain.Guest, token domain.IssuedToken) GuestSessionResponse {
	return GuestSessionResponse{
		Guest:          guest,
		Token:          token.Token,
		TokenExpiresAt: token.ExpiresAt,
	}
}

func historyResponse(records []*domain.AttendanceRecord) HistoryResponse {
	if records == nil {
		records = []*domain.AttendanceRecord{}
	}
	return HistoryResponse{Records: records, Count: len(records)}
}

// parseConsent accepts the usual checkbox encodings.
func parseConsent(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "on" || v == "yes" {
		return true
	}
	ok, _ := strconv.ParseBool(v)
	return ok
}
