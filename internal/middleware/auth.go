package middleware

import (
	"context"
	"errors"
	"strings"

	"kaizen/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenVerifier resolves an access token to the user id it was issued for.
type TokenVerifier func(ctx context.Context, token string) (uint, error)

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// AuthRequired rejects requests without a valid bearer access token and
// stores the user id in locals and in the user context.
func AuthRequired(verify TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication credentials were not provided."))
		}
		return authenticate(c, verify, token)
	}
}

// WebSocketAuthRequired is AuthRequired for upgrade requests. Browsers cannot
// set headers on a websocket handshake, so the token query parameter is
// accepted as well.
func WebSocketAuthRequired(verify TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			var ok bool
			if token, ok = BearerToken(c); !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token required"))
			}
		}
		return authenticate(c, verify, token)
	}
}

// OptionalAuth identifies the caller when a valid bearer token is present and
// lets anonymous requests through otherwise.
func OptionalAuth(verify TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return c.Next()
		}
		userID, err := verify(c.UserContext(), token)
		if err != nil {
			return c.Next()
		}
		setUser(c, userID)
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, verify TokenVerifier, token string) error {
	userID, err := verify(c.UserContext(), token)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeInternal {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if appErr == nil {
			err = models.NewUnauthorizedError("Invalid or expired token")
		}
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}
	setUser(c, userID)
	return c.Next()
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(WithUserID(c.UserContext(), userID))
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}
