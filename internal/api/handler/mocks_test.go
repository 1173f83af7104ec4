package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/service"
)

var fixedNow = time.Date(2026, 3, 2, 8, 45, 0, 0, time.UTC)

// MockGuestService is a mock implementation of GuestService
type MockGuestService struct {
	mock.Mock
}

func (m *MockGuestService) Enroll(ctx context.Context, in service.GuestEnrollment, now time.Time) (*domain.Guest, domain.IssuedToken, error) {
	args := m.Called(ctx, in, now)
	if args.Get(0) == nil {
		return nil, domain.IssuedToken{}, args.Error(2)
	}
	return args.Get(0).(*domain.Guest), args.Get(1).(domain.IssuedToken), args.Error(2)
}

func (m *MockGuestService) Resume(ctx context.Context, email string, image []byte, now time.Time) (*domain.Guest, domain.IssuedToken, error) {
	args := m.Called(ctx, email, image, now)
	if args.Get(0) == nil {
		return nil, domain.IssuedToken{}, args.Error(2)
	}
	return args.Get(0).(*domain.Guest), args.Get(1).(domain.IssuedToken), args.Error(2)
}

func (m *MockGuestService) CheckIn(ctx context.Context, token string, image []byte, now time.Time) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, token, image, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceRecord), args.Error(1)
}

func (m *MockGuestService) CheckOut(ctx context.Context, token string, image []byte, now time.Time) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, token, image, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceRecord), args.Error(1)
}

func (m *MockGuestService) Status(ctx context.Context, token string, now time.Time) (*service.GuestStatus, error) {
	args := m.Called(ctx, token, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GuestStatus), args.Error(1)
}

func (m *MockGuestService) History(ctx context.Context, token string, limit int, now time.Time) ([]*domain.AttendanceRecord, error) {
	args := m.Called(ctx, token, limit, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AttendanceRecord), args.Error(1)
}

func (m *MockGuestService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) EnrollFace(ctx context.Context, user *domain.User, images [][]byte) error {
	return m.Called(ctx, user, images).Error(0)
}

func (m *MockUserService) CheckIn(ctx context.Context, identity domain.Identity, image []byte, now time.Time) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, identity, image, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceRecord), args.Error(1)
}

func (m *MockUserService) CheckOut(ctx context.Context, identity domain.Identity, image []byte, now time.Time) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, identity, image, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceRecord), args.Error(1)
}

// MockAttendanceReader is a mock implementation of AttendanceReader
type MockAttendanceReader struct {
	mock.Mock
}

func (m *MockAttendanceReader) Today(ctx context.Context, identity domain.Identity, now time.Time) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, identity, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceRecord), args.Error(1)
}

func (m *MockAttendanceReader) History(ctx context.Context, identity domain.Identity, limit int) ([]*domain.AttendanceRecord, error) {
	args := m.Called(ctx, identity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AttendanceRecord), args.Error(1)
}

func (m *MockAttendanceReader) ByDate(ctx context.Context, date domain.Date) ([]*domain.AttendanceRecord, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AttendanceRecord), args.Error(1)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})
}

type imagePart struct {
	field       string
	content     []byte
	contentType string
}

func jpeg(field string, content string) imagePart {
	return imagePart{field: field, content: []byte(content), contentType: "image/jpeg"}
}

func captures(n int) []imagePart {
	parts := make([]imagePart, n)
	for i := range parts {
		parts[i] = jpeg("images", fmt.Sprintf("capture-%d", i))
	}
	return parts
}

func capturedBytes(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("capture-%d", i))
	}
	return out
}

// Helper to create multipart request
func newMultipartRequest(t *testing.T, method, target string, fields map[string]string, images ...imagePart) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}

	for i, img := range images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="capture-%d.jpg"`, img.field, i))
		h.Set("Content-Type", img.contentType)

		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write(img.content)
	}

	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, r io.Reader) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}
