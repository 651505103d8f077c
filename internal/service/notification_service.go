package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kaizen/internal/cache"
	"kaizen/internal/featureflags"
	"kaizen/internal/middleware"
	"kaizen/internal/models"
	"kaizen/internal/notifications"
	"kaizen/internal/observability"
	"kaizen/internal/repository"

	"gorm.io/gorm"
)

// EventPublisher pushes realtime events to a user. notifications.Notifier
// implements it.
type EventPublisher interface {
	PublishUser(ctx context.Context, userID uint, event notifications.Event) error
}

// FlagChecker reports whether a feature flag is on for a user.
type FlagChecker interface {
	Enabled(name string, userID uint) bool
}

// NotifyInput describes an interaction worth telling the post author about.
type NotifyInput struct {
	Type        models.NotificationType
	RecipientID uint
	ActorID     uint
	PostID      uint
	CommentID   *uint
}

// NotificationService creates and reads notifications. Every read and
// write is scoped to the recipient passed in.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher EventPublisher
	flags     FlagChecker
	now       func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository, publisher EventPublisher, flags FlagChecker) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		flags:     flags,
		now:       time.Now,
	}
}

// Notify stores a notification unless the recipient or actor is missing or
// the actor is acting on their own post, in which case it returns nil, nil.
// The realtime push afterwards is best effort.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	if in.RecipientID == 0 || in.ActorID == 0 || in.RecipientID == in.ActorID {
		return nil, nil
	}
	if in.Type == models.NotificationLike {
		in.CommentID = nil
	}

	n := &models.Notification{
		RecipientID: in.RecipientID,
		ActorID:     in.ActorID,
		Type:        in.Type,
		PostID:      in.PostID,
		CommentID:   in.CommentID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.NotificationsCreated.WithLabelValues(string(in.Type)).Inc()
	cache.InvalidateUnreadCount(ctx, in.RecipientID)

	s.publish(ctx, n)
	return n, nil
}

func (s *NotificationService) publish(ctx context.Context, n *models.Notification) {
	if !s.realtimeEnabled(n.RecipientID) {
		return
	}
	full, err := s.repo.GetForRecipient(ctx, n.ID, n.RecipientID)
	if err != nil {
		full = n
	}
	s.send(ctx, n.RecipientID, notifications.Event{Type: notifications.EventNotificationCreated, Payload: full.View()})
}

// send pushes one event. A failure is logged and counted, never returned.
func (s *NotificationService) send(ctx context.Context, recipientID uint, event notifications.Event) {
	if err := s.publisher.PublishUser(ctx, recipientID, event); err != nil {
		observability.NotificationFailures.WithLabelValues("publish").Inc()
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			slog.Uint64("recipient_id", uint64(recipientID)),
			slog.String("event", event.Type),
			slog.String("error", err.Error()),
		)
	}
}

func (s *NotificationService) realtimeEnabled(userID uint) bool {
	if s.publisher == nil {
		return false
	}
	return s.flags == nil || s.flags.Enabled(featureflags.RealtimeNotifications, userID)
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID uint) ([]*models.Notification, error) {
	items, err := s.repo.ListByRecipient(ctx, recipientID, 0, 0)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

// MarkRead sets the read time of one of the recipient's notifications. A
// second call keeps the first time. Another user's notification is NotFound.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID uint) (*models.Notification, error) {
	n, err := s.repo.GetForRecipient(ctx, notificationID, recipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Notification", notificationID)
		}
		return nil, models.NewInternalError(err)
	}
	if n.IsRead() {
		return n, nil
	}

	at := s.now().UTC()
	updated, err := s.repo.MarkRead(ctx, notificationID, recipientID, at)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateUnreadCount(ctx, recipientID)
	if updated == 0 {
		// a concurrent call won; return its timestamp
		if n, err = s.repo.GetForRecipient(ctx, notificationID, recipientID); err != nil {
			return nil, models.NewInternalError(err)
		}
		return n, nil
	}
	n.ReadAt = &at
	return n, nil
}

// MarkAllRead marks every unread notification of the recipient and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	marked, err := s.repo.MarkAllRead(ctx, recipientID, s.now().UTC())
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	cache.InvalidateUnreadCount(ctx, recipientID)
	if marked > 0 && s.realtimeEnabled(recipientID) {
		s.send(ctx, recipientID, notifications.Event{
			Type:    notifications.EventNotificationsRead,
			Payload: map[string]int64{"marked": marked},
		})
	}
	return marked, nil
}

// UnreadCount is served from Redis when possible.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := cache.AsideGuarded(ctx, cache.UnreadCountKey(recipientID), cache.UnreadCountGenKey(recipientID), &count, cache.UnreadCountTTL, func() error {
		n, err := s.repo.CountUnread(ctx, recipientID)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
