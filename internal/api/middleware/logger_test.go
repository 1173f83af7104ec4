package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

// lastRecord decodes the last JSON line with the given message.
func lastRecord(t *testing.T, buf *bytes.Buffer, msg string) map[string]any {
	t.Helper()
	var found map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] == msg {
			found = rec
		}
	}
	require.NotNil(t, found, "no %q record in %s", msg, buf.String())
	return found
}

func TestLogger_LogsCallerIdentity(t *testing.T) {
	logger, buf := bufferLogger()
	userID := uuid.New()

	app := newTestApp()
	app.Use(Logger(logger))
	app.Post("/v1/attendance/check-in", func(c *fiber.Ctx) error {
		c.Locals(LocalIdentity, domain.RegisteredUser(userID))
		return domain.ErrAlreadyCheckedIn
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/attendance/check-in", strings.NewReader("capture")))
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)

	rec := lastRecord(t, buf, "http request")
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "user", rec["identity_kind"])
	assert.Equal(t, userID.String(), rec["identity_id"])
	assert.Equal(t, "/v1/attendance/check-in", rec["route"])
	assert.Equal(t, "ALREADY_CHECKED_IN", rec["error_code"])
	assert.Equal(t, float64(409), rec["status"])
	assert.Equal(t, float64(len("capture")), rec["body_bytes"])
}

func TestLogger_GuestRouteKeepsTokenAndIDOut(t *testing.T) {
	logger, buf := bufferLogger()
	guestID := uuid.New()

	app := newTestApp()
	app.Use(Logger(logger))
	app.Use(GuestToken())
	app.Post("/v1/guests/:id/check-in", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	req := httptest.NewRequest("POST", "/v1/guests/"+guestID.String()+"/check-in", nil)
	req.Header.Set("Authorization", "Bearer 9c1e-guest-bearer")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	assert.NotContains(t, buf.String(), "9c1e-guest-bearer")

	rec := lastRecord(t, buf, "http request")
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "guest", rec["identity_kind"])
	assert.NotContains(t, rec, "identity_id")
	assert.Equal(t, "/v1/guests/:id/check-in", rec["route"])
	assert.NotContains(t, rec, "error_code")
}

func TestRecover_LogsRequestAndCaller(t *testing.T) {
	logger, buf := bufferLogger()
	guestID := uuid.New()

	app := newTestApp()
	app.Use(requestid.New())
	app.Use(Recover(logger))
	app.Post("/v1/guests/:id/check-out", func(c *fiber.Ctx) error {
		c.Locals(LocalIdentity, domain.GuestIdentity(guestID, "secret-bearer"))
		panic("descriptor store exploded")
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/guests/"+guestID.String()+"/check-out", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, resp.Body))

	assert.NotContains(t, buf.String(), "secret-bearer")

	rec := lastRecord(t, buf, "panic recovered")
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "descriptor store exploded", rec["panic"])
	assert.Equal(t, "guest", rec["identity_kind"])
	assert.Equal(t, guestID.String(), rec["identity_id"])
	assert.Equal(t, "/v1/guests/:id/check-out", rec["route"])
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), rec["request_id"])
	assert.NotEmpty(t, rec["stack"])
}
