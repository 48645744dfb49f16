package server

import (
	"github.com/gofiber/fiber/v2"
)

// SummarizeQuestion handles POST /api/ai/summarize/:question_id
// @Summary Summarize a question
// @Description Generates and stores a summary of the question and its first answers
// @Tags ai
// @Produce json
// @Security BearerAuth
// @Param question_id path string true "Question ID"
// @Success 200 {object} service.SummaryResult
// @Failure 404 {object} models.ErrorResponse
// @Router /ai/summarize/{question_id} [post]
func (s *Server) SummarizeQuestion(c *fiber.Ctx) error {
	result, err := s.aiService.Summarize(c.UserContext(), param(c, "question_id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// SuggestTags handles POST /api/ai/suggest-tags
// @Summary Suggest tags
// @Tags ai
// @Produce json
// @Security BearerAuth
// @Param title query string true "Question title"
// @Param content query string true "Question body"
// @Success 200 {object} service.TagSuggestion
// @Failure 400 {object} models.ErrorResponse
// @Router /ai/suggest-tags [post]
func (s *Server) SuggestTags(c *fiber.Ctx) error {
	result, err := s.aiService.SuggestTags(c.UserContext(), c.Query("title"), c.Query("content"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// GetQualityScore handles GET /api/ai/quality-score/:answer_id
// @Summary Answer quality score
// @Tags ai
// @Produce json
// @Security BearerAuth
// @Param answer_id path string true "Answer ID"
// @Success 200 {object} service.QualityScore
// @Failure 404 {object} models.ErrorResponse
// @Router /ai/quality-score/{answer_id} [get]
func (s *Server) GetQualityScore(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	result, err := s.aiService.QualityScore(c.UserContext(), userID, param(c, "answer_id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// GetAIAnalytics handles GET /api/ai/analytics/platform
// @Summary AI coverage analytics
// @Tags ai
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.AIStats
// @Router /ai/analytics/platform [get]
func (s *Server) GetAIAnalytics(c *fiber.Ctx) error {
	stats, err := s.aiService.PlatformAnalytics(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}
