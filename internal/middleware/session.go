package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionHeader carries a re-minted session token back to the caller.
const SessionHeader = "X-Session-Token"

// ResolvedSession is the outcome of validating a session token.
type ResolvedSession struct {
	UserID string
	// Token is set when the presented token was re-minted.
	Token     string
	ExpiresAt time.Time
}

// SessionResolver validates session tokens.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*ResolvedSession, error)
}

// AuthRequired rejects requests without a valid session and stores the user
// id in c.Locals("userID").
func AuthRequired(r SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentification requise",
				"code":  "UNAUTHORIZED",
			})
		}
		session, err := r.Resolve(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Session invalide ou expirée",
				"code":  "UNAUTHORIZED",
			})
		}
		applySession(c, session)
		return c.Next()
	}
}

// AuthOptional resolves the session when one is presented and lets
// anonymous or invalid sessions through as anonymous.
func AuthOptional(r SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := SessionToken(c); token != "" {
			if session, err := r.Resolve(c.UserContext(), token); err == nil {
				applySession(c, session)
			}
		}
		return c.Next()
	}
}

func applySession(c *fiber.Ctx, s *ResolvedSession) {
	c.Locals("userID", s.UserID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, s.UserID))
	if s.Token != "" {
		c.Set(SessionHeader, s.Token)
		SetSessionCookie(c, s.Token, s.ExpiresAt)
	}
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *fiber.Ctx) {
	c.ClearCookie(SessionCookie)
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
