package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverStub struct {
	sessions map[string]*ResolvedSession
}

func (r resolverStub) Resolve(_ context.Context, token string) (*ResolvedSession, error) {
	if s, ok := r.sessions[token]; ok {
		return s, nil
	}
	return nil, errors.New("invalid token")
}

func sessionApp() *fiber.App {
	r := resolverStub{sessions: map[string]*ResolvedSession{
		"fresh": {UserID: "user-1"},
		"stale": {UserID: "user-2", Token: "reminted", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	app := fiber.New()
	app.Get("/private", AuthRequired(r), func(c *fiber.Ctx) error {
		ctxID, _ := c.UserContext().Value(UserIDKey).(string)
		return c.SendString(UserID(c) + "|" + ctxID)
	})
	app.Get("/public", AuthOptional(r), func(c *fiber.Ctx) error {
		return c.SendString("viewer=" + UserID(c))
	})
	return app
}

func doSession(t *testing.T, app *fiber.App, path, token string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	app := sessionApp()

	resp, body := doSession(t, app, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Authentification requise")

	resp, body = doSession(t, app, "/private", "forged")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Session invalide ou expirée")

	resp, body = doSession(t, app, "/private", "fresh")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-1|user-1", body)
	assert.Empty(t, resp.Header.Get(SessionHeader))
}

func TestAuthRequired_RefreshesStaleToken(t *testing.T) {
	t.Parallel()
	app := sessionApp()

	resp, body := doSession(t, app, "/private", "stale")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-2|user-2", body)
	assert.Equal(t, "reminted", resp.Header.Get(SessionHeader))

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, "reminted", cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestAuthOptional(t *testing.T) {
	t.Parallel()
	app := sessionApp()

	_, body := doSession(t, app, "/public", "")
	assert.Equal(t, "viewer=", body)

	resp, body := doSession(t, app, "/public", "forged")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "viewer=", body)

	_, body = doSession(t, app, "/public", "fresh")
	assert.Equal(t, "viewer=user-1", body)
}
