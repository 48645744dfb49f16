package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// Welcome handles GET /
func (s *Server) Welcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome to the Q&A Platform API!"})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so a
// server started without it reports it as disabled and stays ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := statusHealthy
	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			dbStatus = statusUnhealthy
		}
	}

	redisStatus := statusDisabled
	if s.redis != nil {
		redisStatus = statusHealthy
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = statusUnhealthy
		}
	}

	status := fiber.StatusOK
	overallStatus := statusHealthy
	if dbStatus == statusUnhealthy || redisStatus == statusUnhealthy {
		status = fiber.StatusServiceUnavailable
		overallStatus = statusUnhealthy
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"db_driver": s.config.DBDriver,
		"time":      time.Now(),
	})
}
