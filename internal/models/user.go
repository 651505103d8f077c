// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Gender is the self-declared gender stored on a profile.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderUnspecified Gender = "unspecified"
)

// Valid reports whether g is one of the supported values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnspecified:
		return true
	}
	return false
}

// User represents a Kaizen board account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254" json:"email"`
	Password     string    `gorm:"not null" json:"-"`
	Nickname     string    `gorm:"size:50;uniqueIndex;not null" json:"nickname"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	Gender       Gender    `gorm:"size:20;not null;default:unspecified" json:"gender"`
	MicrosoftOID *string   `gorm:"size:255;uniqueIndex" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	IsVerified   bool      `gorm:"not null;default:true" json:"is_verified"`
	IsActive     bool      `gorm:"not null;default:true" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserPublic is the only shape of a user exposed to other users.
type UserPublic struct {
	ID       uint   `json:"id"`
	Nickname string `json:"nickname"`
	IsStaff  bool   `json:"is_staff,omitempty"`
}

// Public returns the public projection of u.
func (u User) Public() UserPublic {
	return UserPublic{ID: u.ID, Nickname: u.Nickname, IsStaff: u.IsStaff}
}

// GenerateNickname returns a placeholder handle for accounts created without one.
func GenerateNickname() string {
	return fmt.Sprintf("User%d", 1000+rand.IntN(9000))
}
