package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

var testLimit = Limit{Name: "signin", Requests: 3, Window: time.Minute}

func TestCheckRateLimit_Bypass(t *testing.T) {
	for _, env := range []string{"", "test", "development"} {
		t.Run("env="+env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			d, err := CheckRateLimit(context.Background(), nil, testLimit, "ip:1")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestCheckRateLimit_Counts(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb, _ := newMiniRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := CheckRateLimit(ctx, rdb, testLimit, "ip:1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should pass", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}
	d, err := CheckRateLimit(ctx, rdb, testLimit, "ip:1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	assert.Greater(t, d.ResetIn, time.Duration(0))

	// Another viewer has its own window.
	d, err = CheckRateLimit(ctx, rdb, testLimit, "ip:2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCheckRateLimit_WindowExpires(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb, mr := newMiniRedis(t)
	ctx := context.Background()
	l := Limit{Name: "vote", Requests: 1, Window: time.Minute}

	d, _ := CheckRateLimit(ctx, rdb, l, "user:a")
	assert.True(t, d.Allowed)
	d, _ = CheckRateLimit(ctx, rdb, l, "user:a")
	assert.False(t, d.Allowed)

	mr.FastForward(61 * time.Second)
	d, err := CheckRateLimit(ctx, rdb, l, "user:a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, err := CheckRateLimit(context.Background(), nil, testLimit, "ip:1")
	assert.ErrorIs(t, err, errNoStore)
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb, _ := newMiniRedis(t)

	app := fiber.New()
	app.Post("/signin", RateLimit(rdb, Limit{Name: "signin", Requests: 2, Window: time.Minute}), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	var last *http.Response
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/signin", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
		last = resp
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.NotEmpty(t, last.Header.Get("Retry-After"))
	assert.Equal(t, "0", last.Header.Get("X-RateLimit-Remaining"))
}

func TestRateLimitPolicies(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	tests := []struct {
		name   string
		policy FailPolicy
		status int
	}{
		{"fail open", FailOpen, http.StatusOK},
		{"fail closed", FailClosed, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			l := Limit{Name: "x", Requests: 2, Window: time.Minute, Policy: tt.policy}
			app.Post("/x", RateLimit(nil, l), func(c *fiber.Ctx) error {
				return c.SendStatus(http.StatusOK)
			})
			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/x", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
