package server

import (
	"strings"

	"kaizen/internal/middleware"
	"kaizen/internal/models"
	"kaizen/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultPostPageSize = 20

// ListCategories handles GET /api/categories/
func (s *Server) ListCategories(c *fiber.Ctx) error {
	categories, err := s.postService.ListCategories(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(categories)
}

// ListPosts handles GET /api/posts/, newest first. Signed-in readers get
// is_liked_by_me filled in.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPostPageSize)
	posts, err := s.postService.ListPosts(c.UserContext(), page.Limit, page.Offset, middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(toPostResponses(posts))
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), postID, middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(toPostResponse(post))
}

// CreatePost handles POST /api/posts/
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in service.CreatePostInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = middleware.UserID(c)

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPostResponse(post))
}

// UpdatePost handles PATCH /api/posts/:id. Only the author may edit.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.UpdatePostInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.PostID = postID

	actor, err := s.actor(c)
	if err != nil {
		return respondServiceError(c, err)
	}
	post, err := s.postService.UpdatePost(c.UserContext(), actor, in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(toPostResponse(post))
}

// SetPostStatus handles PATCH /api/posts/:id/status. Staff only.
func (s *Server) SetPostStatus(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	actor, err := s.actor(c)
	if err != nil {
		return respondServiceError(c, err)
	}
	status := models.PostStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	post, err := s.postService.SetStatus(c.UserContext(), actor, postID, status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(toPostResponse(post))
}

// DeletePost handles DELETE /api/posts/:id. The author or staff may delete.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return respondServiceError(c, err)
	}
	if err := s.postService.DeletePost(c.UserContext(), actor, postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/posts/:id/like/
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.postService.ToggleLike(c.UserContext(), middleware.UserID(c), postID)
	if err != nil {
		return respondServiceError(c, err)
	}

	status := "unliked"
	if result.Liked {
		status = "liked"
	}
	return c.JSON(likeResponse{
		Status:      status,
		LikesCount:  result.LikesCount,
		IsLikedByMe: result.Liked,
	})
}
