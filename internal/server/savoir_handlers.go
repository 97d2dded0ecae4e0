package server

import (
	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListSavoirs handles GET /api/savoirs
// @Summary List savoirs
// @Tags savoirs
// @Produce json
// @Param category query string false "Category"
// @Param era query string false "Era"
// @Param region query string false "Region"
// @Param search query string false "Free text"
// @Param sort query string false "recent, votes or trending"
// @Param user_id query string false "Contributor"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Page[models.Savoir]
// @Router /savoirs [get]
func (s *Server) ListSavoirs(c *fiber.Ctx) error {
	page := parsePagination(c)
	res, err := s.savoirService.ListSavoirs(c.UserContext(), service.ListSavoirsInput{
		Category:    c.Query("category"),
		Era:         c.Query("era"),
		Region:      c.Query("region"),
		Search:      c.Query("search"),
		Sort:        c.Query("sort"),
		Page:        page.Page,
		Limit:       page.Limit,
		ViewerID:    middleware.UserID(c),
		Contributor: c.Query("user_id"),
		Privileged:  middleware.IsServiceTier(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// SearchSavoirs handles GET /api/search?q=...
// @Summary Search savoirs
// @Tags savoirs
// @Produce json
// @Param q query string true "Query"
// @Param limit query int false "Max results"
// @Success 200 {object} models.Page[models.Savoir]
// @Router /search [get]
func (s *Server) SearchSavoirs(c *fiber.Ctx) error {
	res, err := s.savoirService.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// GetSavoir handles GET /api/savoirs/:id
// @Summary Get a savoir by id or slug
// @Tags savoirs
// @Produce json
// @Param id path string true "Savoir id or slug"
// @Success 200 {object} models.Savoir
// @Failure 404 {object} models.ErrorResponse
// @Router /savoirs/{id} [get]
func (s *Server) GetSavoir(c *fiber.Ctx) error {
	savoir, err := s.savoirService.GetSavoir(c.UserContext(), service.GetSavoirInput{
		Key:        c.Params("id"),
		ViewerID:   middleware.UserID(c),
		Privileged: middleware.IsServiceTier(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(savoir)
}

// CreateSavoir handles POST /api/savoirs
// @Summary Create a savoir
// @Tags savoirs
// @Accept json
// @Produce json
// @Param request body service.SavoirInput true "Savoir"
// @Success 201 {object} models.Savoir
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /savoirs [post]
func (s *Server) CreateSavoir(c *fiber.Ctx) error {
	var req service.SavoirInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	savoir, err := s.savoirService.CreateSavoir(c.UserContext(), service.CreateSavoirInput{
		UserID:      middleware.UserID(c),
		SavoirInput: req,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(savoir)
}

// UpdateSavoir handles PATCH /api/savoirs/:id
// @Summary Update a savoir
// @Tags savoirs
// @Accept json
// @Produce json
// @Param id path string true "Savoir id or slug"
// @Param request body models.SavoirPatch true "Changed fields"
// @Success 200 {object} models.Savoir
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /savoirs/{id} [patch]
func (s *Server) UpdateSavoir(c *fiber.Ctx) error {
	var patch models.SavoirPatch
	if err := parseBody(c, &patch); err != nil {
		return nil
	}

	savoir, err := s.savoirService.UpdateSavoir(c.UserContext(), service.UpdateSavoirInput{
		Key:        c.Params("id"),
		UserID:     middleware.UserID(c),
		Privileged: middleware.IsServiceTier(c),
		Patch:      patch,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(savoir)
}

// DeleteSavoir handles DELETE /api/savoirs/:id
// @Summary Delete a savoir
// @Tags savoirs
// @Param id path string true "Savoir id or slug"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /savoirs/{id} [delete]
func (s *Server) DeleteSavoir(c *fiber.Ctx) error {
	err := s.savoirService.DeleteSavoir(c.UserContext(), service.DeleteSavoirInput{
		Key:        c.Params("id"),
		UserID:     middleware.UserID(c),
		Privileged: middleware.IsServiceTier(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
