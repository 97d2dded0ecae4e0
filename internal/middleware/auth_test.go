package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tierApp() *fiber.App {
	app := fiber.New()
	app.Use(APIKey("anon-key", "service-key"))
	app.Get("/tier", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("tier").(string))
	})
	app.Get("/admin", ServiceOnly, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/token", func(c *fiber.Ctx) error {
		return c.SendString(SessionToken(c))
	})
	return app
}

func TestAPIKey(t *testing.T) {
	t.Parallel()
	app := tierApp()

	tests := []struct {
		name       string
		path       string
		key        string
		wantStatus int
		wantBody   string
	}{
		{"missing key", "/tier", "", http.StatusUnauthorized, ""},
		{"wrong key", "/tier", "nope", http.StatusUnauthorized, ""},
		{"anon key", "/tier", "anon-key", http.StatusOK, TierAnon},
		{"service key", "/tier", "service-key", http.StatusOK, TierService},
		{"anon on admin route", "/admin", "anon-key", http.StatusForbidden, ""},
		{"service on admin route", "/admin", "service-key", http.StatusOK, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("apikey", tt.key)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestSessionToken(t *testing.T) {
	t.Parallel()
	app := tierApp()

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc.def", "", "abc.def"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"malformed header", "Token abc", "cookie-token", ""},
		{"cookie fallback", "", "cookie-token", "cookie-token"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/token", nil)
			req.Header.Set("apikey", "anon-key")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}
}
