package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-auth-starter/middleware/clientip"
)

func newLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLimiter(client, limit, window, "test:"), s
}

func TestRedisLimiterWindow(t *testing.T) {
	lim, s := newLimiter(t, 2, 500*time.Millisecond)
	ctx := context.Background()

	allowed, _, err := lim.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = lim.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, retryAfter, err := lim.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	s.FastForward(600 * time.Millisecond)
	allowed, _, err = lim.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLimiterInvalidWindow(t *testing.T) {
	lim, _ := newLimiter(t, 1, 0)
	_, _, err := lim.Allow(context.Background(), "ip")
	assert.Error(t, err)
}

func newApp(lim *RedisLimiter, keyFunc func(router.Context) string) *fiber.App {
	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{DisableStartupMessage: true})
		app.Use(clientip.New())
		return app
	})
	srv.Router().Post("/api/tokens", func(ctx router.Context) error {
		return ctx.SendStatus(router.StatusOK)
	}, New(Config{Limiter: lim, KeyFunc: keyFunc}))
	return srv.WrappedRouter()
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	lim, _ := newLimiter(t, 1, time.Minute)
	app := newApp(lim, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/tokens", nil))
	require.NoError(t, err)
	assert.Equal(t, router.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/tokens", nil))
	require.NoError(t, err)
	assert.Equal(t, router.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestMiddlewareBucketsByKey(t *testing.T) {
	lim, _ := newLimiter(t, 1, time.Minute)
	app := newApp(lim, func(ctx router.Context) string {
		return ctx.Header("X-Client")
	})

	for _, client := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodPost, "/api/tokens", nil)
		req.Header.Set("X-Client", client)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, router.StatusOK, resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/tokens", nil)
	req.Header.Set("X-Client", "a")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, router.StatusTooManyRequests, resp.StatusCode)
}

func TestMiddlewareFailsOpen(t *testing.T) {
	lim, s := newLimiter(t, 1, time.Minute)
	s.Close()
	app := newApp(lim, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/tokens", nil))
	require.NoError(t, err)
	assert.Equal(t, router.StatusOK, resp.StatusCode)
}

func TestNewRequiresLimiter(t *testing.T) {
	assert.Panics(t, func() { New(Config{}) })
}
