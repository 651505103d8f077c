package server

import (
	"context"
	"errors"
	"time"

	"kaizen/internal/middleware"
	"kaizen/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /api/users/. Only the public projection is exposed.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	users, err := s.userService.ListUsers(ctx, c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(models.ErrorResponse{
				Error: "Request timeout",
			})
		}
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetMe(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
