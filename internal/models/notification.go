package models

import (
	"time"
)

// NotificationType says which interaction produced a notification.
type NotificationType string

const (
	NotificationLike    NotificationType = "LIKE"
	NotificationComment NotificationType = "COMMENT"
)

// Notification tells a recipient that an actor liked or commented on their post.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index:idx_notifications_recipient_read,priority:1;index:idx_notifications_recipient_created,priority:1" json:"-"`
	ActorID     uint             `gorm:"not null" json:"-"`
	Actor       User             `gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE" json:"-"`
	Recipient   *User            `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"-"`
	Type        NotificationType `gorm:"size:20;not null" json:"type"`
	PostID      uint             `gorm:"not null" json:"post"`
	Post        *Post            `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CommentID   *uint            `json:"comment"`
	Comment     *Comment         `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time        `gorm:"index:idx_notifications_recipient_created,priority:2" json:"created_at"`
	ReadAt      *time.Time       `gorm:"index:idx_notifications_recipient_read,priority:2" json:"read_at"`
}

// IsRead reports whether the recipient has seen the notification.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

// NotificationActor is the part of the actor exposed to the recipient.
type NotificationActor struct {
	ID        uint   `json:"id"`
	Nickname  string `json:"nickname"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NotificationView is the API and websocket representation of a notification.
type NotificationView struct {
	ID        uint              `json:"id"`
	Type      NotificationType  `json:"type"`
	Post      uint              `json:"post"`
	Comment   *uint             `json:"comment"`
	Actor     NotificationActor `json:"actor"`
	IsRead    bool              `json:"is_read"`
	ReadAt    *time.Time        `json:"read_at"`
	CreatedAt time.Time         `json:"created_at"`
}

// View flattens n for serialization. Actor must be loaded for the actor
// block to be filled.
func (n Notification) View() NotificationView {
	return NotificationView{
		ID:      n.ID,
		Type:    n.Type,
		Post:    n.PostID,
		Comment: n.CommentID,
		Actor: NotificationActor{
			ID:        n.ActorID,
			Nickname:  n.Actor.Nickname,
			Username:  n.Actor.Username,
			FirstName: n.Actor.FirstName,
			LastName:  n.Actor.LastName,
		},
		IsRead:    n.IsRead(),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
