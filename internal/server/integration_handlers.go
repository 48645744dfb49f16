package server

import (
	"askaway/internal/middleware"
	"askaway/internal/models"

	"github.com/gofiber/fiber/v2"
)

// DailySummaryResponse acknowledges a scheduled Slack summary.
type DailySummaryResponse struct {
	Message string                `json:"message"`
	Stats   *models.DailyActivity `json:"stats"`
}

func currentUsername(c *fiber.Ctx) string {
	if claims, ok := middleware.CurrentClaims(c); ok {
		return claims.Username
	}
	return ""
}

// SlackNotify handles POST /api/integrations/slack/notify
// @Summary Post to Slack
// @Tags integrations
// @Produce json
// @Security BearerAuth
// @Param channel query string true "Channel"
// @Param message query string true "Text"
// @Success 200 {object} service.SlackNotifyResult
// @Failure 400 {object} models.ErrorResponse
// @Router /integrations/slack/notify [post]
func (s *Server) SlackNotify(c *fiber.Ctx) error {
	result, err := s.integrationService.SlackNotify(c.UserContext(),
		c.Query("channel"), c.Query("message"), currentUsername(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// SlackDailySummary handles POST /api/integrations/slack/daily-summary
// @Summary Send yesterday's summary to Slack
// @Tags integrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DailySummaryResponse
// @Router /integrations/slack/daily-summary [post]
func (s *Server) SlackDailySummary(c *fiber.Ctx) error {
	activity, err := s.integrationService.ScheduleDailySummary(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(DailySummaryResponse{
		Message: "Daily summary scheduled for sending",
		Stats:   activity,
	})
}

// AWSBackup handles POST /api/integrations/aws/backup
// @Summary Back up platform data to S3
// @Tags integrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.BackupResult
// @Router /integrations/aws/backup [post]
func (s *Server) AWSBackup(c *fiber.Ctx) error {
	result, err := s.integrationService.ScheduleBackup(c.UserContext(), currentUsername(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// AWSMetrics handles POST /api/integrations/aws/metrics
// @Summary Publish platform metrics to CloudWatch
// @Tags integrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.MetricsResult
// @Router /integrations/aws/metrics [post]
func (s *Server) AWSMetrics(c *fiber.Ctx) error {
	result, err := s.integrationService.ScheduleMetrics(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// IntegrationStatus handles GET /api/integrations/status
// @Summary Integration configuration status
// @Tags integrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.IntegrationStatus
// @Router /integrations/status [get]
func (s *Server) IntegrationStatus(c *fiber.Ctx) error {
	return c.JSON(s.integrationService.Status())
}
