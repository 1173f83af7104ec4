package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedApp(rl *RateLimiter) *fiber.App {
	app := newTestApp()
	app.Use(rl.Handler())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{Max: 5, Window: time.Minute})
		defer rl.Stop()
		app := newLimitedApp(rl)

		for i := 0; i < 5; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
			assert.Equal(t, "5", resp.Header.Get("X-RateLimit-Limit"))
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{Max: 2, Window: time.Minute})
		defer rl.Stop()
		app := newLimitedApp(rl)

		for i := 0; i < 2; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		}

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, 429, resp.StatusCode)
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, resp.Body))
	})

	t.Run("separate keys have separate budgets", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{
			Max:    1,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.Get("X-Client")
			},
		})
		defer rl.Stop()
		app := newLimitedApp(rl)

		for _, client := range []string{"a", "b"} {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("X-Client", client)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		}
	})

	t.Run("window resets", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{Max: 1, Window: time.Minute})
		defer rl.Stop()
		now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }
		app := newLimitedApp(rl)

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, 429, resp.StatusCode)

		now = now.Add(61 * time.Second)
		resp, err = app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
}

func TestRateLimiter_EvictStale(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Max: 1, Window: time.Minute})
	defer rl.Stop()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	app := newLimitedApp(rl)

	_, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Len(t, rl.limiters, 1)

	now = now.Add(3 * time.Minute)
	rl.evictStale()
	assert.Empty(t, rl.limiters)
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	assert.Equal(t, 20, cfg.Max)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.NotNil(t, cfg.KeyGenerator)
}
