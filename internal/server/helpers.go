package server

import (
	"errors"
	"log/slog"
	"strings"

	"askaway/internal/middleware"
	"askaway/internal/models"

	"github.com/gofiber/fiber/v2"
)

// MsgServerError is the only detail the classic account routes reveal about
// unexpected failures.
const MsgServerError = "Server Error"

// mapServiceError picks the HTTP status for an error returned by a service.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeConflict:
		return fiber.StatusConflict
	case models.CodeUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Internal errors are
// logged and answered without their cause.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status == fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		return models.RespondWithError(c, status, models.NewInternalError(err))
	}
	return models.RespondWithError(c, status, err)
}

// respondLegacyError is respondServiceError for /api/users, whose clients
// expect a bare "Server Error" message on unexpected failures.
func respondLegacyError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status == fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		return c.Status(status).JSON(models.ErrorResponse{Message: MsgServerError})
	}
	return models.RespondWithError(c, status, err)
}

// currentUser returns the authenticated user ID. Routes behind AuthRequired
// always have one; the check guards against wiring mistakes.
func currentUser(c *fiber.Ctx) (string, error) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return "", errResponseWritten
	}
	return userID, nil
}

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// param returns a trimmed route parameter.
func param(c *fiber.Ctx, name string) string {
	return strings.TrimSpace(c.Params(name))
}
