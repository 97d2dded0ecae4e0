package server

import (
	"log/slog"

	"arche/internal/middleware"
	"arche/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade rejects plain HTTP requests and resolves the viewer's
// feed scope before the connection is upgraded.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if s.hub == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewValidationError("Fil en direct indisponible"))
	}
	authors, err := s.activityService.Authors(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	c.Locals("authors", authors)
	return c.Next()
}

// ActivityFeedHandler streams activities to the viewer: everyone's for
// anonymous viewers, their own and their followings' otherwise.
// @Summary Live activity feed
// @Tags activities
// @Param token query string false "Session token"
// @Success 101
// @Router /ws/activities [get]
func (s *Server) ActivityFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)
		authors, _ := conn.Locals("authors").([]string)

		client, err := s.hub.Register(userID, conn, authors)
		if err != nil {
			middleware.Logger.Warn("live feed registration refused",
				slog.String("user_id", userID), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
