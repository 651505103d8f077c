package models

// Category classifies posts. Inactive categories stay attached to existing
// posts but cannot be chosen for new ones.
type Category struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}
