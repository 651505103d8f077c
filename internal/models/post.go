package models

import (
	"time"
)

// PostStatus is the review stage of a post.
type PostStatus string

const (
	PostStatusToVerify    PostStatus = "TO_VERIFY"
	PostStatusSubmitted   PostStatus = "SUBMITTED"
	PostStatusInProgress  PostStatus = "IN_PROGRESS"
	PostStatusImplemented PostStatus = "IMPLEMENTED"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusToVerify, PostStatusSubmitted, PostStatusInProgress, PostStatusImplemented:
		return true
	}
	return false
}

// Post represents an improvement idea submitted to the board.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Title      string     `gorm:"size:200;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	UserID     uint       `gorm:"not null;index" json:"-"`
	User       User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CategoryID uint       `gorm:"not null;index" json:"category"`
	Category   *Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	Status     PostStatus `gorm:"size:20;not null;default:TO_VERIFY" json:"status"`
	Survey     *Survey    `gorm:"foreignKey:PostID" json:"survey"`
	Images     []Image    `gorm:"foreignKey:PostID" json:"images"`
	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int64 `gorm:"->;-:migration" json:"comments_count"`
	// Liked indicates whether the requesting user liked this post (computed)
	Liked     bool      `gorm:"->;-:migration" json:"is_liked_by_me"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
