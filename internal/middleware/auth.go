package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie carries the session token for cookie-based clients.
const SessionCookie = "arche_session"

// Credential tiers resolved from the apikey header.
const (
	TierAnon    = "anon"
	TierService = "service"
)

// APIKey enforces the credential tier header on every request it guards and
// stores the resolved tier in c.Locals("tier").
func APIKey(anonKey, serviceKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("apikey")
		if key == "" {
			key = c.Query("apikey")
		}
		switch {
		case key != "" && constantTimeEqual(key, serviceKey):
			c.Locals("tier", TierService)
		case key != "" && constantTimeEqual(key, anonKey):
			c.Locals("tier", TierAnon)
		default:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Clé d'API invalide ou manquante",
				"code":  "UNAUTHORIZED",
			})
		}
		return c.Next()
	}
}

// IsServiceTier reports whether the request presented the privileged key.
func IsServiceTier(c *fiber.Ctx) bool {
	tier, _ := c.Locals("tier").(string)
	return tier == TierService
}

// ServiceOnly rejects requests that did not present the privileged key.
func ServiceOnly(c *fiber.Ctx) error {
	if !IsServiceTier(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Accès réservé",
			"code":  "FORBIDDEN",
		})
	}
	return c.Next()
}

// SessionToken extracts the session token from the Authorization header,
// falling back to the session cookie. The query parameter is only honoured
// for websocket upgrades, where browsers cannot set headers.
func SessionToken(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie := c.Cookies(SessionCookie); cookie != "" {
		return cookie
	}
	if strings.EqualFold(c.Get("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
