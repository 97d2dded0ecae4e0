package server

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"arche/internal/auth"
	"arche/internal/middleware"
	"arche/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SignUp handles user registration
// @Summary Create an account
// @Description Register a password identity and its profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignUpInput true "Signup request"
// @Success 201 {object} object{message=string,user=auth.SignUpResult}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) SignUp(c *fiber.Ctx) error {
	var req auth.SignUpInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.auth.SignUp(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "account created", slog.String("user_id", result.ID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": auth.MsgSignupSuccess,
		"user":    result,
	})
}

// SignIn handles credential sign-in
// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} auth.Session
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/signin [post]
func (s *Server) SignIn(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	session, err := s.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	middleware.SetSessionCookie(c, session.Token, session.ExpiresAt)
	return c.JSON(session)
}

// OAuthRedirect sends the browser to the provider's consent page
// @Summary Start an OAuth sign-in
// @Tags auth
// @Param provider path string true "Provider" Enums(google)
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/oauth/{provider} [get]
func (s *Server) OAuthRedirect(c *fiber.Ctx) error {
	target, err := s.auth.OAuthURL(c.UserContext(), c.Params("provider"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Redirect(target, fiber.StatusFound)
}

// OAuthCallback completes an OAuth sign-in. Browsers are redirected to the
// front-end with the session cookie set; API clients get the session as JSON.
// @Summary OAuth callback
// @Tags auth
// @Produce json
// @Param provider path string true "Provider" Enums(google)
// @Param code query string true "Authorization code"
// @Param state query string true "State"
// @Success 200 {object} auth.Session
// @Success 302
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/callback/{provider} [get]
func (s *Server) OAuthCallback(c *fiber.Ctx) error {
	wantsJSON := c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON

	var (
		session *auth.Session
		err     error
	)
	if c.Query("error") != "" {
		err = models.NewUnauthorizedError(auth.MsgOAuthFailed)
	} else {
		session, err = s.auth.CompleteOAuth(c.UserContext(), c.Params("provider"), c.Query("code"), c.Query("state"))
	}
	if err != nil {
		if wantsJSON {
			return models.RespondWithAppError(c, err)
		}
		message := auth.MsgOAuthFailed
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		return c.Redirect(s.landingURL("/connexion?error="+url.QueryEscape(message)), fiber.StatusFound)
	}

	middleware.SetSessionCookie(c, session.Token, session.ExpiresAt)
	if wantsJSON {
		return c.JSON(session)
	}
	return c.Redirect(s.landingURL("/"), fiber.StatusFound)
}

// landingURL resolves path against the first configured front-end origin.
func (s *Server) landingURL(path string) string {
	origin := strings.TrimSpace(strings.Split(s.config.AllowedOrigins, ",")[0])
	if origin == "" || origin == "*" {
		return path
	}
	return strings.TrimRight(origin, "/") + path
}

// GetSession handles GET /api/auth/session
// @Summary Current session
// @Description Re-reads the profile so the snapshot reflects recent edits
// @Tags auth
// @Produce json
// @Success 200 {object} object{user=auth.SessionUser}
// @Router /auth/session [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(fiber.Map{"user": nil})
	}
	user, err := s.auth.Snapshot(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// GetMe handles GET /api/auth/me
// @Summary Signed-in profile with statistics
// @Tags auth
// @Produce json
// @Success 200 {object} models.ProfileWithStats
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	profile, err := s.profileService.Me(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// SignOut revokes the presented session and clears the cookie
// @Summary Sign out
// @Tags auth
// @Success 204
// @Router /auth/signout [post]
func (s *Server) SignOut(c *fiber.Ctx) error {
	if token := middleware.SessionToken(c); token != "" {
		if err := s.auth.SignOut(c.UserContext(), token); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "session revocation failed", slog.String("error", err.Error()))
		}
	}
	middleware.ClearSessionCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}
