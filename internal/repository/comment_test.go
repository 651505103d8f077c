package repository

import (
	"context"
	"regexp"
	"testing"

	"kaizen/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCommentRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	comment := &models.Comment{Content: "Nice idea!", PostID: 1, UserID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "comments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, comment)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ListByPost_OldestFirst(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	commenter := seedUser(t, db, "commenter")
	post := seedPost(t, db, author, seedCategory(t, db, "BHP"), "idea")
	otherPost := seedPost(t, db, author, seedCategory(t, db, "PROCES"), "other")

	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: post.ID, UserID: commenter.ID, Content: "first"}))
	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: post.ID, UserID: author.ID, Content: "second"}))
	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: otherPost.ID, UserID: author.ID, Content: "elsewhere"}))

	comments, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "nick_commenter", comments[0].User.Nickname)
	assert.Equal(t, "second", comments[1].Content)
}

func TestCommentRepository_UpdateContentAndDelete(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author, seedCategory(t, db, "BHP"), "idea")
	c := &models.Comment{PostID: post.ID, UserID: author.ID, Content: "draft"}
	require.NoError(t, repo.Create(ctx, c))

	require.NoError(t, repo.UpdateContent(ctx, c.ID, "final"))
	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Content)
	assert.Equal(t, author.ID, got.UserID)
	assert.Equal(t, post.ID, got.PostID)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, c.ID), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.UpdateContent(ctx, c.ID, "x"), gorm.ErrRecordNotFound)
}
