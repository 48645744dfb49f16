package server

import (
	"askaway/internal/middleware"
	"askaway/internal/models"
	"askaway/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateQuestionRequest is the body of POST /api/questions.
type CreateQuestionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tags    string `json:"tags"`
}

// CreateQuestion handles POST /api/questions
// @Summary Ask a question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateQuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} models.ErrorResponse
// @Router /questions [post]
func (s *Server) CreateQuestion(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	var req CreateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	question, err := s.questionService.CreateQuestion(c.UserContext(), service.CreateQuestionInput{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

// ListQuestions handles GET /api/questions
// @Summary List questions
// @Description Newest first
// @Tags questions
// @Produce json
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size (max 100)" default(100)
// @Success 200 {array} models.Question
// @Router /questions [get]
func (s *Server) ListQuestions(c *fiber.Ctx) error {
	questions, err := s.questionService.ListQuestions(c.UserContext(),
		c.QueryInt("skip", 0), c.QueryInt("limit", service.DefaultListLimit))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(questions)
}

// SearchQuestions handles GET /api/questions/search
// @Summary Search questions
// @Description Case-insensitive match on title, content or tags
// @Tags questions
// @Produce json
// @Param q query string true "Search text"
// @Param limit query int false "Max results" default(50)
// @Success 200 {array} models.Question
// @Failure 400 {object} models.ErrorResponse
// @Router /questions/search [get]
func (s *Server) SearchQuestions(c *fiber.Ctx) error {
	questions, err := s.questionService.SearchQuestions(c.UserContext(),
		c.Query("q"), c.QueryInt("limit", service.DefaultSearchLimit))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(questions)
}

// GetFeed handles GET /api/questions/feed
// @Summary Personalized feed
// @Description Questions matching the caller's interests
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max results" default(50)
// @Success 200 {array} models.Question
// @Router /questions/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	questions, err := s.questionService.Feed(c.UserContext(), userID,
		c.QueryInt("limit", service.DefaultSearchLimit))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(questions)
}

// GetQuestion handles GET /api/questions/:id
// @Summary Get a question
// @Description Counts a view for the caller (anonymous when no token is sent)
// @Tags questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} models.ErrorResponse
// @Router /questions/{id} [get]
func (s *Server) GetQuestion(c *fiber.Ctx) error {
	viewerID, _ := middleware.CurrentUserID(c)
	question, err := s.questionService.GetQuestion(c.UserContext(), param(c, "id"), viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(question)
}

// GetQuestionAnswers handles GET /api/questions/:id/answers
// @Summary List a question's answers
// @Tags questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {array} models.Answer
// @Failure 404 {object} models.ErrorResponse
// @Router /questions/{id}/answers [get]
func (s *Server) GetQuestionAnswers(c *fiber.Ctx) error {
	return s.listAnswers(c, param(c, "id"))
}
