package seed

import (
	"context"
	"testing"

	"kaizen/internal/models"
	"kaizen/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testOptions() Options {
	return Options{NumUsers: 4, NumPosts: 5, MaxCommentsPerPost: 2, FastHash: true, RandSeed: 42}
}

func TestSeed_CreatesBoard(t *testing.T) {
	db := testutil.SQLiteDB(t)
	ctx := context.Background()

	stats, err := Seed(ctx, db, testOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Users)
	assert.Equal(t, len(samplePosts)+5, stats.Posts)
	assert.GreaterOrEqual(t, stats.Comments, stats.Posts)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.True(t, admin.IsStaff)
	assert.NotEmpty(t, admin.Nickname)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("admin123")))

	var categories int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	assert.Equal(t, int64(len(DefaultCategories)), categories)

	var first models.Post
	require.NoError(t, db.Where("title = ?", samplePosts[0].title).First(&first).Error)
	assert.Equal(t, models.PostStatusToVerify, first.Status)

	var selfLikes int64
	require.NoError(t, db.Table("likes").
		Joins("JOIN posts ON posts.id = likes.post_id").
		Where("likes.user_id = posts.user_id").
		Count(&selfLikes).Error)
	assert.Zero(t, selfLikes)

	var surveys []models.Survey
	require.NoError(t, db.Find(&surveys).Error)
	assert.Len(t, surveys, stats.Surveys)
	for _, s := range surveys {
		assert.False(t, s.EstimatedTimeSavingsHours.IsNegative())
	}
}

func TestSeed_IsIdempotent(t *testing.T) {
	db := testutil.SQLiteDB(t)
	ctx := context.Background()

	_, err := Seed(ctx, db, testOptions())
	require.NoError(t, err)

	opts := testOptions()
	opts.NumUsers = 0
	stats, err := Seed(ctx, db, opts)
	require.NoError(t, err)
	assert.Zero(t, stats.Posts, "posts are only seeded into an empty board")

	var admins int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "admin").Count(&admins).Error)
	assert.Equal(t, int64(1), admins)
}

func TestSeed_Clean(t *testing.T) {
	db := testutil.SQLiteDB(t)
	ctx := context.Background()

	_, err := Seed(ctx, db, testOptions())
	require.NoError(t, err)

	opts := testOptions()
	opts.ShouldClean = true
	opts.NumUsers = 1
	opts.NumPosts = 0
	stats, err := Seed(ctx, db, opts)
	require.NoError(t, err)
	assert.Equal(t, len(samplePosts), stats.Posts)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(len(baseAccounts)+1), users)
}

func TestFactory_CreateUserGeneratesNickname(t *testing.T) {
	db := testutil.SQLiteDB(t)
	f := NewFactory(db, Options{FastHash: true, RandSeed: 7})

	u, err := f.CreateUser(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^User\d{4}$`, u.Nickname)
	assert.True(t, u.Gender.Valid())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))
}
