package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"kaizen/internal/featureflags"
	"kaizen/internal/middleware"
	"kaizen/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// NotificationStream handles GET /api/ws/notifications. Each connection
// receives an unread count snapshot, then every notification event
// published for its user.
func (s *Server) NotificationStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.Close()
			return
		}

		if s.hub == nil || !s.featureFlags.Enabled(featureflags.RealtimeNotifications, uid) {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"realtime notifications are unavailable"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("notification stream rejected",
				slog.Uint64("user_id", uint64(uid)),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		if snapshot, err := s.unreadSnapshot(uid); err == nil {
			client.TrySend(snapshot)
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func (s *Server) unreadSnapshot(userID uint) ([]byte, error) {
	ctx, cancel := context.WithTimeout(middleware.WithUserID(context.Background(), userID), 5*time.Second)
	defer cancel()

	count, err := s.notificationService.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(notifications.Event{
		Type:    notifications.EventUnreadCount,
		Payload: map[string]int64{"unread_count": count},
	})
}
