package server

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"askaway/internal/middleware"
	"askaway/internal/models"
	"askaway/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterRequest is the token API sign-up body.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Interests string `json:"interests"`
	WorkArea  string `json:"work_area"`
}

// LoginRequest accepts a username or email. Both JSON and form bodies bind.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TokenResponse is an OAuth2-style bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UpdateProfileRequest is a partial profile update; absent fields are left alone.
type UpdateProfileRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email"`
	Interests       *string `json:"interests"`
	WorkArea        *string `json:"work_area"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

func tokenResponse(session *service.Session) TokenResponse {
	t := session.Token
	return TokenResponse{
		AccessToken: t.Value,
		TokenType:   "bearer",
		ExpiresIn:   int64(t.ExpiresAt.Sub(t.IssuedAt).Seconds()),
	}
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account; last name, interests and work area are optional
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Account"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.RegisterAccount(c.UserContext(), service.RegisterInput(req))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate with a username or email, from a JSON or form body
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	return s.login(c, req)
}

// LoginJSON handles POST /api/auth/login-json
// @Summary Login (JSON)
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login-json [post]
func (s *Server) LoginJSON(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	return s.login(c, req)
}

func (s *Server) login(c *fiber.Ctx, req LoginRequest) error {
	session, err := s.authService.LoginAccount(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if models.IsCode(err, models.CodeUnauthorized) {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}
		return respondServiceError(c, err)
	}
	return c.JSON(tokenResponse(session))
}

// GetMe handles GET /api/auth/me
// @Summary Current profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /auth/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	user, err := s.authService.Profile(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMe handles PUT /api/auth/me
// @Summary Update profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/me [put]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:          userID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Interests:       req.Interests,
		WorkArea:        req.WorkArea,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// DeleteMe handles DELETE /api/auth/me
// @Summary Delete account
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/me [delete]
func (s *Server) DeleteMe(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	if err := s.authService.DeleteAccount(c.UserContext(), userID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyStats handles GET /api/auth/me/stats
// @Summary Account statistics
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserStats
// @Router /auth/me/stats [get]
func (s *Server) GetMyStats(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	stats, err := s.authService.Stats(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// Refresh handles POST /api/auth/refresh
// @Summary Refresh token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TokenResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	session, err := s.authService.Refresh(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(tokenResponse(session))
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the presented token until it expires
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := middleware.CurrentClaims(c)
	if err := s.authService.Logout(c.UserContext(), claims); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// GoogleLogin handles GET /api/auth/google/login
// @Summary Google sign-in
// @Description Redirect to Google's consent screen
// @Tags auth
// @Success 307
// @Failure 503 {object} models.ErrorResponse
// @Router /auth/google/login [get]
func (s *Server) GoogleLogin(c *fiber.Ctx) error {
	if !s.authService.GoogleConfigured() {
		return c.Redirect(s.frontendCallback("error", service.OAuthReasonNotConfigured), fiber.StatusTemporaryRedirect)
	}
	target, err := s.authService.GoogleLoginURL(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /api/auth/google/callback
// @Summary Google sign-in callback
// @Description Finish sign-in and redirect to the frontend with a token or an error reason
// @Tags auth
// @Param state query string true "OAuth state"
// @Param code query string true "Authorization code"
// @Success 307
// @Router /auth/google/callback [get]
func (s *Server) GoogleCallback(c *fiber.Ctx) error {
	session, err := s.authService.GoogleCallback(c.UserContext(), c.Query("state"), c.Query("code"))
	if err != nil {
		reason := service.OAuthReasonAccount
		var oauthErr *service.OAuthError
		if errors.As(err, &oauthErr) {
			reason = oauthErr.Reason
		}
		slog.WarnContext(c.UserContext(), "google sign-in failed", "reason", reason, "error", err)
		return c.Redirect(s.frontendCallback("error", reason), fiber.StatusTemporaryRedirect)
	}
	return c.Redirect(s.frontendCallback("token", session.Token.Value), fiber.StatusTemporaryRedirect)
}

func (s *Server) frontendCallback(key, value string) string {
	base := strings.TrimRight(s.config.FrontendURL, "/")
	return base + "/auth/callback?" + url.Values{key: {value}}.Encode()
}
