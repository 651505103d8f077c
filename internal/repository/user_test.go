package repository

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"kaizen/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "username", "nickname", "email"}).
		AddRow(1, "jan", "Jan", "jan@example.com")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(1, 1).
		WillReturnRows(rows)

	user, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "jan", user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), 404)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserRepository_CreateGeneratesNickname(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Username: "anna", Email: "anna@example.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.True(t, strings.HasPrefix(u.Nickname, "User"))
	assert.Equal(t, models.GenderUnspecified, u.Gender)

	got, err := repo.GetByUsername(ctx, "anna")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Nickname, got.Nickname)
	assert.True(t, got.IsActive)

	missing, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_CreateDuplicateUsername(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "piotr", Nickname: "Piotr", Password: "hash"}))
	err := repo.Create(ctx, &models.User{Username: "piotr", Nickname: "Piotr2", Password: "hash"})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestUserRepository_ListSkipsInactive(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	active := seedUser(t, db, "active")
	inactive := seedUser(t, db, "inactive")
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	users, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, active.ID, users[0].ID)
}
