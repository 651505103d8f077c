package server

import (
	"strings"
	"time"

	"kaizen/internal/middleware"
	"kaizen/internal/models"
	"kaizen/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultRefreshCookieName = "refresh_token"
	defaultRefreshCookiePath = "/api/access/token/refresh/"
	logoutDetail             = "Successfully logged out and token invalidated."
)

// Login handles POST /api/access/token/. The refresh token only ever
// travels in the HttpOnly cookie.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = "This field is required."
	}
	if req.Password == "" {
		fields["password"] = "This field is required."
	}
	if len(fields) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("Invalid credentials payload", fields))
	}

	result, err := s.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.setRefreshCookie(c, result.Tokens)
	return c.JSON(loginResponse{
		Access:    result.Tokens.Access,
		Username:  result.Username,
		Email:     result.Email,
		FirstName: result.FirstName,
		LastName:  result.LastName,
		Gender:    result.Gender,
	})
}

// RefreshToken handles POST /api/access/token/refresh/. Only the cookie is
// read; a refresh token in the body is ignored.
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	token := c.Cookies(s.refreshCookieName())
	if token == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Refresh token not found in cookies."))
	}

	pair, err := s.authService.Refresh(c.UserContext(), token)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.setRefreshCookie(c, pair)
	return c.JSON(fiber.Map{"access": pair.Access})
}

// Logout handles POST /api/access/logout/. It always succeeds and always
// clears the refresh cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	access, _ := middleware.BearerToken(c)
	s.authService.Logout(c.UserContext(), c.Cookies(s.refreshCookieName()), access)

	s.clearRefreshCookie(c)
	return c.JSON(fiber.Map{"detail": logoutDetail})
}

func (s *Server) refreshCookieName() string {
	if s.config.RefreshCookieName != "" {
		return s.config.RefreshCookieName
	}
	return defaultRefreshCookieName
}

func (s *Server) refreshCookiePath() string {
	if s.config.RefreshCookiePath != "" {
		return s.config.RefreshCookiePath
	}
	return defaultRefreshCookiePath
}

func (s *Server) setRefreshCookie(c *fiber.Ctx, pair *service.TokenPair) {
	c.Cookie(&fiber.Cookie{
		Name:     s.refreshCookieName(),
		Value:    pair.Refresh,
		Path:     s.refreshCookiePath(),
		MaxAge:   int(s.authService.Issuer().RefreshTTL().Seconds()),
		Expires:  pair.RefreshExpiresAt,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.refreshCookieName(),
		Value:    "",
		Path:     s.refreshCookiePath(),
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
