package repository

import (
	"context"
	"time"

	"kaizen/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository persists notifications. Every read and write is
// scoped to the recipient.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error)
	GetForRecipient(ctx context.Context, id, recipientID uint) (*models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uint, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, recipientID uint, at time.Time) (int64, error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a NotificationRepository backed by db.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Omit("Actor", "Recipient", "Post", "Comment").Create(n).Error
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error) {
	var notifications []*models.Notification
	q := r.db.WithContext(ctx).
		Preload("Actor").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) GetForRecipient(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	var n models.Notification
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("id = ? AND recipient_id = ?", id, recipientID).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkRead sets read_at only when it is still null, so repeated calls keep
// the first read time.
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uint, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Count(&count).Error
	return count, err
}
