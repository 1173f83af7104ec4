package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{name: "app error", err: domain.ErrAlreadyCheckedIn, expectedStatus: 409, expectedCode: "ALREADY_CHECKED_IN"},
		{name: "wrapped app error", err: domain.ErrFaceMismatch.WithError(errors.New("distance 0.71")), expectedStatus: 401, expectedCode: "FACE_MISMATCH"},
		{name: "fiber error", err: fiber.ErrMethodNotAllowed, expectedStatus: 405, expectedCode: "HTTP_ERROR"},
		{name: "unknown error", err: errors.New("boom"), expectedStatus: 500, expectedCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.expectedCode, errorCode(t, resp.Body))
			assert.Equal(t, tt.expectedStatus, statusOf(tt.err))
		})
	}
}

func TestRecover(t *testing.T) {
	app := newTestApp()
	app.Use(Recover(testLogger()))
	app.Get("/", func(c *fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, resp.Body))
}
