package server

import (
	"io"

	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetLeaderboard handles GET /api/profiles
// @Summary Profiles by reputation
// @Tags profiles
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Page[models.Profile]
// @Router /profiles [get]
func (s *Server) GetLeaderboard(c *fiber.Ctx) error {
	page := parsePagination(c)
	res, err := s.profileService.Leaderboard(c.UserContext(), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// GetProfile handles GET /api/profiles/:username
// @Summary Public profile with statistics
// @Tags profiles
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.ProfileWithStats
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile handles PATCH /api/profiles
// @Summary Update the signed-in profile
// @Tags profiles
// @Accept json
// @Produce json
// @Param request body models.ProfileUpdate true "Changed fields"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profiles [patch]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var patch models.ProfileUpdate
	if err := parseBody(c, &patch); err != nil {
		return nil
	}
	profile, err := s.profileService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID: middleware.UserID(c),
		Patch:  patch,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// GetBadges handles GET /api/gamification/badges
// @Summary Badge and tier catalog
// @Tags gamification
// @Produce json
// @Success 200 {object} object{badges=[]gamification.Badge,tiers=[]gamification.Tier}
// @Router /gamification/badges [get]
func (s *Server) GetBadges(c *fiber.Ctx) error {
	catalog := s.profileService.Badges()
	return c.JSON(fiber.Map{
		"badges": catalog.Badges,
		"tiers":  catalog.Tiers,
	})
}

// GetFeatureFlags returns configured feature flags and their state for the viewer.
// @Summary Feature flags
// @Tags admin
// @Produce json
// @Success 200 {object} object{raw=map[string]string,evaluated=map[string]bool}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(middleware.UserID(c)),
	})
}

// UploadImage handles POST /api/images (multipart field "image")
// @Summary Upload an illustration
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image"
// @Success 201 {object} service.UploadedImage
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /images [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	header, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Fichier image requis"))
	}
	file, err := header.Open()
	if err != nil {
		return models.RespondWithAppError(c, models.NewInternalError(err))
	}
	defer file.Close()

	// One byte past the limit is enough for the service to reject it.
	content, err := io.ReadAll(io.LimitReader(file, s.imageService.MaxUploadBytes()+1))
	if err != nil {
		return models.RespondWithAppError(c, models.NewInternalError(err))
	}

	img, err := s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      middleware.UserID(c),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}
