package server

import (
	"kaizen/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// ListNotifications handles GET /api/notifications/. Users only ever see
// their own notifications, newest first.
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	items, err := s.notificationService.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(toNotificationViews(items))
}

// UnreadNotificationCount handles GET /api/notifications/unread_count/
func (s *Server) UnreadNotificationCount(c *fiber.Ctx) error {
	count, err := s.notificationService.UnreadCount(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"unread_count": count})
}

// MarkNotificationRead handles POST /api/notifications/:id/mark_read/.
// Marking an already read notification is a no-op.
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	n, err := s.notificationService.MarkRead(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(n.View())
}

// MarkAllNotificationsRead handles POST /api/notifications/mark_all_read/
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	marked, err := s.notificationService.MarkAllRead(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"marked": marked})
}
