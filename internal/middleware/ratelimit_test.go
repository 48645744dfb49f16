package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		limit   int
		calls   int
		allowed bool
	}{
		{"Test Environment Bypass", "test", 1, 5, true},
		{"Development Bypass", "development", 1, 5, true},
		{"Production Within Limit", "production", 3, 3, true},
		{"Production Over Limit", "production", 3, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)
			_, rdb := newTestRedis(t)

			var allowed bool
			var err error
			for i := 0; i < tt.calls; i++ {
				allowed, err = CheckRateLimit(context.Background(), rdb, "login", "ip:1.2.3.4", tt.limit, time.Minute)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

func TestCheckRateLimit_SetsWindowExpiry(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr, rdb := newTestRedis(t)

	_, err := CheckRateLimit(context.Background(), rdb, "register", "ip:1", 5, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, mr.TTL("rl:register:ip:1"))

	mr.FastForward(11 * time.Minute)
	allowed, err := CheckRateLimit(context.Background(), rdb, "register", "ip:1", 1, 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "window resets after expiry")
}

func TestCheckRateLimit_NilClient(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, err := CheckRateLimit(context.Background(), nil, "x", "y", 1, time.Minute)
	assert.Error(t, err)
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, rdb := newTestRedis(t)

	app := fiber.New()
	app.Post("/login", RateLimit(rdb, 2, time.Minute, "login"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, fiber.StatusTooManyRequests}, codes)
}

func TestRateLimitWithPolicy_RedisDown(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr, rdb := newTestRedis(t)
	mr.Close()

	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app := fiber.New()
	app.Get("/open", RateLimitWithPolicy(rdb, 1, time.Minute, FailOpen, "open"), ok)
	app.Get("/closed", RateLimitWithPolicy(rdb, 1, time.Minute, FailClosed, "closed"), ok)

	resp, err := app.Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/closed", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
