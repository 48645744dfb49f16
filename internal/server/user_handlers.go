package server

import (
	"askaway/internal/models"
	"askaway/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterUserRequest is the classic sign-up form.
type RegisterUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Interests string `json:"interests"`
	WorkArea  string `json:"work_area"`
}

// RegisterUserResponse confirms a classic sign-up.
type RegisterUserResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

// LoginUserRequest carries classic login credentials.
type LoginUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginUserResponse is the classic login result.
type LoginUserResponse struct {
	Token   string             `json:"token"`
	User    models.UserSummary `json:"user"`
	Message string             `json:"message"`
}

// RegisterUser handles POST /api/users/register
// @Summary Register
// @Description Create an account from the sign-up form; all identity fields are required
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterUserRequest true "Sign-up form"
// @Success 201 {object} RegisterUserResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /users/register [post]
func (s *Server) RegisterUser(c *fiber.Ctx) error {
	var req RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(service.MsgMissingRegisterFields))
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Interests: req.Interests,
		WorkArea:  req.WorkArea,
	})
	if err != nil {
		return respondLegacyError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(RegisterUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Message:  "Registration successful!",
	})
}

// LoginUser handles POST /api/users/login
// @Summary Login
// @Description Exchange username and password for a 24h JWT
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginUserRequest true "Credentials"
// @Success 200 {object} LoginUserResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) LoginUser(c *fiber.Ctx) error {
	var req LoginUserRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(service.MsgMissingCredentials))
	}

	session, err := s.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondLegacyError(c, err)
	}

	return c.JSON(LoginUserResponse{
		Token:   session.Token.Value,
		User:    session.User.Summary(),
		Message: "Login successfull",
	})
}
