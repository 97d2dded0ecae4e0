package server

import (
	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFavorites handles GET /api/favorites
// @Summary Savoirs the viewer marked as favorite
// @Tags favorites
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Page[models.Savoir]
// @Security BearerAuth
// @Router /favorites [get]
func (s *Server) GetFavorites(c *fiber.Ctx) error {
	page := parsePagination(c)
	res, err := s.socialService.ListFavorites(c.UserContext(), middleware.UserID(c), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// CheckFavorite handles GET /api/favorites/check?savoir_id=...
// @Summary Favorite state of a savoir
// @Tags favorites
// @Produce json
// @Param savoir_id query string true "Savoir id"
// @Success 200 {object} object{isFavorite=bool}
// @Router /favorites/check [get]
func (s *Server) CheckFavorite(c *fiber.Ctx) error {
	savoirID, err := requireQuery(c, "savoir_id")
	if err != nil {
		return nil
	}
	on, err := s.socialService.IsFavorite(c.UserContext(), middleware.UserID(c), savoirID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"isFavorite": on})
}

// ToggleFavorite handles POST /api/favorites
// @Summary Toggle a favorite
// @Tags favorites
// @Accept json
// @Produce json
// @Param request body object{savoir_id=string} true "Savoir"
// @Success 200 {object} object{isFavorite=bool}
// @Security BearerAuth
// @Router /favorites [post]
func (s *Server) ToggleFavorite(c *fiber.Ctx) error {
	var req struct {
		SavoirID string `json:"savoir_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	on, err := s.socialService.ToggleFavorite(c.UserContext(), middleware.UserID(c), req.SavoirID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"isFavorite": on})
}

// GetFollows handles GET /api/follows?user_id=...&direction=...
// @Summary Followers or followings of a profile
// @Tags follows
// @Produce json
// @Param user_id query string true "Profile id"
// @Param direction query string false "followers or following"
// @Success 200 {object} models.Page[models.Profile]
// @Router /follows [get]
func (s *Server) GetFollows(c *fiber.Ctx) error {
	userID, err := requireQuery(c, "user_id")
	if err != nil {
		return nil
	}
	page := parsePagination(c)
	res, err := s.socialService.ListFollows(c.UserContext(), service.ListFollowsInput{
		UserID:    userID,
		Direction: c.Query("direction"),
		Page:      page.Page,
		Limit:     page.Limit,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// CheckFollow handles GET /api/follows/check?user_id=...
// @Summary Whether the viewer follows a profile
// @Tags follows
// @Produce json
// @Param user_id query string true "Profile id"
// @Success 200 {object} object{isFollowing=bool}
// @Router /follows/check [get]
func (s *Server) CheckFollow(c *fiber.Ctx) error {
	userID, err := requireQuery(c, "user_id")
	if err != nil {
		return nil
	}
	on, err := s.socialService.IsFollowing(c.UserContext(), middleware.UserID(c), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"isFollowing": on})
}

// ToggleFollow handles POST /api/follows
// @Summary Toggle a follow
// @Tags follows
// @Accept json
// @Produce json
// @Param request body object{user_id=string} true "Profile to follow"
// @Success 200 {object} object{isFollowing=bool}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /follows [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	on, err := s.socialService.ToggleFollow(c.UserContext(), middleware.UserID(c), req.UserID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"isFollowing": on})
}

// GetActivities handles GET /api/activities
// @Summary Activity feed
// @Tags activities
// @Produce json
// @Param user_id query string false "Only this profile"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Page[models.Activity]
// @Router /activities [get]
func (s *Server) GetActivities(c *fiber.Ctx) error {
	page := parsePagination(c)
	res, err := s.activityService.Feed(c.UserContext(), service.FeedInput{
		ViewerID: middleware.UserID(c),
		UserID:   c.Query("user_id"),
		Page:     page.Page,
		Limit:    page.Limit,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}
