package repository

import (
	"context"
	"time"

	"kaizen/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository stores the server-side token revocation list.
type TokenRepository interface {
	Blacklist(ctx context.Context, entry *models.BlacklistedToken) (bool, error)
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a TokenRepository backed by db.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// Blacklist records entry and reports whether this call inserted it. A
// false result means the jti was already revoked.
func (r *tokenRepository) Blacklist(ctx context.Context, entry *models.BlacklistedToken) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *tokenRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlacklistedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

// DeleteExpired removes entries whose token expired before the cutoff.
func (r *tokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.BlacklistedToken{})
	return res.RowsAffected, res.Error
}
