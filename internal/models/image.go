package models

import "time"

// Image is a photo attached to a post.
type Image struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;index" json:"post"`
	Post        *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Path        string    `gorm:"not null" json:"-"`
	URL         string    `gorm:"not null" json:"url"`
	WebPURL     string    `gorm:"column:webp_url" json:"webp_url,omitempty"`
	ContentType string    `gorm:"size:50" json:"content_type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
