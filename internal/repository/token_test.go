package repository

import (
	"context"
	"testing"
	"time"

	"kaizen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepository_BlacklistOnce(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewTokenRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "owner")

	entry := func() *models.BlacklistedToken {
		return &models.BlacklistedToken{JTI: "jti-1", UserID: user.ID, TokenType: models.TokenTypeRefresh, ExpiresAt: time.Now().Add(time.Hour)}
	}

	created, err := repo.Blacklist(ctx, entry())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Blacklist(ctx, entry())
	require.NoError(t, err)
	assert.False(t, created)

	listed, err := repo.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	listed, err = repo.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewTokenRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "owner")
	now := time.Now()

	_, err := repo.Blacklist(ctx, &models.BlacklistedToken{JTI: "old", UserID: user.ID, TokenType: models.TokenTypeAccess, ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = repo.Blacklist(ctx, &models.BlacklistedToken{JTI: "fresh", UserID: user.ID, TokenType: models.TokenTypeRefresh, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	listed, _ := repo.IsBlacklisted(ctx, "old")
	assert.False(t, listed)
	listed, _ = repo.IsBlacklisted(ctx, "fresh")
	assert.True(t, listed)
}
