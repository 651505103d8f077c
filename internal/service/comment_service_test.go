package service

import (
	"context"
	"strings"
	"testing"

	"kaizen/internal/models"
	"kaizen/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateNotifiesAuthor(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()

	comment, err := b.comments.CreateComment(ctx, CreateCommentInput{
		UserID:  b.reader.ID,
		PostID:  b.post.ID,
		Content: "  Good idea  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Good idea", comment.Content)
	assert.Equal(t, b.reader.Nickname, comment.User.Nickname)

	list, err := b.notifications.List(ctx, b.author.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationComment, list[0].Type)
	require.NotNil(t, list[0].CommentID)
	assert.Equal(t, comment.ID, *list[0].CommentID)
}

func TestCommentService_CreateValidation(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()

	_, err := b.comments.CreateComment(ctx, CreateCommentInput{UserID: b.reader.ID, PostID: b.post.ID, Content: " \n "})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Equal(t, "This field is required.", appErr.Fields["text"])

	_, err = b.comments.CreateComment(ctx, CreateCommentInput{UserID: b.reader.ID, PostID: b.post.ID, Content: strings.Repeat("a", 10001)})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = b.comments.CreateComment(ctx, CreateCommentInput{UserID: b.reader.ID, PostID: 999, Content: "hi"})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.Zero(t, b.countNotifications(t, b.author.ID))
}

func TestCommentService_CreateSurvivesNotifierFailure(t *testing.T) {
	b := newBoard(t)
	notifier := &failingNotifier{}
	svc := NewCommentService(repository.NewCommentRepository(b.db), repository.NewPostRepository(b.db), notifier)

	comment, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: b.reader.ID, PostID: b.post.ID, Content: "hi"})
	require.NoError(t, err)
	assert.NotZero(t, comment.ID)
	assert.Equal(t, 1, notifier.calls)
}

func TestCommentService_ListOldestFirst(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	for _, text := range []string{"first", "second", "third"} {
		_, err := b.comments.CreateComment(ctx, CreateCommentInput{UserID: b.reader.ID, PostID: b.post.ID, Content: text})
		require.NoError(t, err)
	}

	list, err := b.comments.ListComments(ctx, b.post.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "third", list[2].Content)

	_, err = b.comments.ListComments(ctx, 999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestCommentService_UpdateAndDelete(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	comment, err := b.comments.CreateComment(ctx, CreateCommentInput{UserID: b.reader.ID, PostID: b.post.ID, Content: "typo"})
	require.NoError(t, err)

	_, err = b.comments.UpdateComment(ctx, Actor{ID: b.author.ID}, UpdateCommentInput{CommentID: comment.ID, Content: "changed"})
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	updated, err := b.comments.UpdateComment(ctx, Actor{ID: b.reader.ID}, UpdateCommentInput{CommentID: comment.ID, Content: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", updated.Content)
	assert.Equal(t, b.post.ID, updated.PostID)
	assert.Equal(t, b.reader.ID, updated.UserID)

	err = b.comments.DeleteComment(ctx, Actor{ID: b.author.ID}, comment.ID)
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	require.NoError(t, b.comments.DeleteComment(ctx, Actor{ID: b.staff.ID, IsStaff: true}, comment.ID))
	_, err = b.comments.GetComment(ctx, comment.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
