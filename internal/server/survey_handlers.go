package server

import (
	"kaizen/internal/middleware"
	"kaizen/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetSurvey handles GET /api/posts/:id/survey/
func (s *Server) GetSurvey(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	sv, err := s.surveyService.GetSurvey(c.UserContext(), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(sv)
}

// CreateSurvey handles POST /api/posts/:id/survey/
func (s *Server) CreateSurvey(c *fiber.Ctx) error {
	return s.upsertSurvey(c, service.SurveyCreate, fiber.StatusCreated)
}

// UpdateSurvey handles PUT /api/posts/:id/survey/
func (s *Server) UpdateSurvey(c *fiber.Ctx) error {
	return s.upsertSurvey(c, service.SurveyUpdate, fiber.StatusOK)
}

func (s *Server) upsertSurvey(c *fiber.Ctx, method service.SurveyMethod, status int) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.UpsertSurveyInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = middleware.UserID(c)
	in.PostID = postID
	in.Method = method

	sv, err := s.surveyService.Upsert(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(status).JSON(sv)
}
