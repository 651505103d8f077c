package server

import (
	"context"

	"kaizen/internal/middleware"
	"kaizen/internal/models"
	"kaizen/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// AuthRequired returns the authentication middleware. Only access tokens
// are accepted; a refresh token presented as bearer is rejected.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthRequired(s.verifyAccess)
}

func (s *Server) verifyAccess(ctx context.Context, token string) (uint, error) {
	claims, err := s.authService.VerifyAccess(ctx, token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// StaffRequired returns middleware that rejects non-staff users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := s.actor(c)
		if err != nil {
			return respondServiceError(c, err)
		}
		if !actor.IsStaff {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Staff access required"))
		}
		return c.Next()
	}
}

// actor loads the capabilities of the authenticated user. The staff flag is
// only read when a handler needs it.
func (s *Server) actor(c *fiber.Ctx) (service.Actor, error) {
	userID := middleware.UserID(c)
	if userID == 0 {
		return service.Actor{}, models.NewUnauthorizedError("Authentication credentials were not provided.")
	}
	actor, err := s.userService.Actor(c.UserContext(), userID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return service.Actor{}, models.NewUnauthorizedError("User not found")
		}
		return service.Actor{}, err
	}
	return actor, nil
}

func requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}
