package server

import (
	"io"

	"kaizen/internal/models"
	"kaizen/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListImages handles GET /api/posts/:id/images/
func (s *Server) ListImages(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.postService.GetPost(c.UserContext(), postID, 0); err != nil {
		return respondServiceError(c, err)
	}
	images, err := s.imageService.ListImages(c.UserContext(), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(images)
}

// UploadImage handles POST /api/posts/:id/images/ with a multipart "image" field.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("Invalid input", map[string]string{
				"image": "No file was submitted.",
			}))
	}
	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	actor, err := s.actor(c)
	if err != nil {
		return respondServiceError(c, err)
	}
	uploaded, err := s.imageService.Upload(c.UserContext(), actor, service.UploadImageInput{
		PostID:      postID,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(imageUploadResponse{
		ID:     uploaded.ID,
		URL:    uploaded.URL,
		Width:  uploaded.Width,
		Height: uploaded.Height,
	})
}
