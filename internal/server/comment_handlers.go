package server

import (
	"kaizen/internal/middleware"
	"kaizen/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/posts/:id/comments/, oldest first.
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(toCommentResponses(comments))
}

// CreateComment handles POST /api/posts/:id/comments/
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.CreateCommentInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = middleware.UserID(c)
	in.PostID = postID

	created, err := s.commentService.CreateComment(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCommentResponse(created))
}

// GetComment handles GET /api/comments/:id
func (s *Server) GetComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.GetComment(c.UserContext(), commentID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(toCommentResponse(comment))
}

// UpdateComment handles PUT /api/comments/:id. Only the author may edit.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.UpdateCommentInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.CommentID = commentID

	actor, err := s.actor(c)
	if err != nil {
		return respondServiceError(c, err)
	}
	updated, err := s.commentService.UpdateComment(c.UserContext(), actor, in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(toCommentResponse(updated))
}

// DeleteComment handles DELETE /api/comments/:id. The author or staff may delete.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return respondServiceError(c, err)
	}
	if err := s.commentService.DeleteComment(c.UserContext(), actor, commentID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
