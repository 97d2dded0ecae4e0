package server

import (
	"errors"
	"strings"

	"arche/internal/middleware"
	"arche/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed page/limit query parameters. Services clamp them.
type Pagination struct {
	Page  int
	Limit int
}

func parsePagination(c *fiber.Ctx) Pagination {
	return Pagination{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 0),
	}
}

// requireQuery reads a mandatory query parameter. On failure it writes a 400
// JSON response and returns errResponseWritten.
func requireQuery(c *fiber.Ctx, name string) (string, error) {
	value := strings.TrimSpace(c.Query(name))
	if value == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(name+" requis"))
		return "", errResponseWritten
	}
	return value, nil
}

// parseBody decodes the JSON body into dest, writing a 400 on failure.
func parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Corps de requête invalide"))
		return errResponseWritten
	}
	return nil
}

// featureRequired hides a route behind a feature flag, evaluated for the
// current viewer.
func (s *Server) featureRequired(flag string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.featureFlags == nil || !s.featureFlags.Enabled(flag, middleware.UserID(c)) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Fonctionnalité", flag))
		}
		return c.Next()
	}
}
