package server

import (
	"askaway/internal/models"
	"askaway/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateAnswerRequest is the body of POST /api/answers.
type CreateAnswerRequest struct {
	Content string `json:"content"`
}

// StarRequest is the body of POST /api/stars.
type StarRequest struct {
	AnswerID string `json:"answer_id"`
}

// CreateAnswer handles POST /api/answers?question_id=
// @Summary Answer a question
// @Tags answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param question_id query string true "Question ID"
// @Param request body CreateAnswerRequest true "Answer"
// @Success 201 {object} models.Answer
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /answers [post]
func (s *Server) CreateAnswer(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	var req CreateAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	answer, err := s.answerService.CreateAnswer(c.UserContext(), service.CreateAnswerInput{
		UserID:     userID,
		QuestionID: c.Query("question_id"),
		Content:    req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(answer)
}

// GetAnswers handles GET /api/answers/:question_id
// @Summary List a question's answers
// @Description Oldest first
// @Tags answers
// @Produce json
// @Param question_id path string true "Question ID"
// @Success 200 {array} models.Answer
// @Failure 404 {object} models.ErrorResponse
// @Router /answers/{question_id} [get]
func (s *Server) GetAnswers(c *fiber.Ctx) error {
	return s.listAnswers(c, param(c, "question_id"))
}

func (s *Server) listAnswers(c *fiber.Ctx, questionID string) error {
	answers, err := s.questionService.ListAnswers(c.UserContext(), questionID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(answers)
}

// StarAnswer handles POST /api/stars
// @Summary Star an answer
// @Tags stars
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StarRequest true "Answer to star"
// @Success 201 {object} models.Star
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /stars [post]
func (s *Server) StarAnswer(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	var req StarRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	star, err := s.starService.Star(c.UserContext(), userID, req.AnswerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(star)
}

// UnstarAnswer handles DELETE /api/stars/:answer_id
// @Summary Remove a star
// @Tags stars
// @Security BearerAuth
// @Param answer_id path string true "Answer ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /stars/{answer_id} [delete]
func (s *Server) UnstarAnswer(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	if err := s.starService.Unstar(c.UserContext(), userID, param(c, "answer_id")); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyStars handles GET /api/stars/me
// @Summary Stars given by the caller
// @Tags stars
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Star
// @Router /stars/me [get]
func (s *Server) GetMyStars(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	stars, err := s.starService.ListMine(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stars)
}
