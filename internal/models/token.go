package models

import "time"

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// BlacklistedToken is a revoked token id. Entries are flushed once the
// token would have expired anyway.
type BlacklistedToken struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	JTI           string    `gorm:"size:64;uniqueIndex;not null" json:"jti"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	TokenType     TokenType `gorm:"size:10;not null" json:"token_type"`
	ExpiresAt     time.Time `gorm:"not null;index" json:"expires_at"`
	BlacklistedAt time.Time `gorm:"autoCreateTime" json:"blacklisted_at"`
}
