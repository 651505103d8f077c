package service

import (
	"context"
	"testing"

	"kaizen/internal/models"
	"kaizen/internal/repository"
	"kaizen/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// racingPostRepo reports no like and then loses the insert, as when two
// requests toggle the same like at once.
type racingPostRepo struct {
	repository.PostRepository
}

func (r racingPostRepo) IsLiked(context.Context, uint, uint) (bool, error) { return false, nil }
func (r racingPostRepo) Like(context.Context, uint, uint) error            { return repository.ErrDuplicate }

func TestPostService_CreatePost(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()

	post, err := b.posts.CreatePost(ctx, CreatePostInput{
		UserID:     b.reader.ID,
		Title:      "  Shadow board for tools  ",
		Content:    "Outline every tool.",
		CategoryID: b.category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Shadow board for tools", post.Title)
	assert.Equal(t, b.reader.ID, post.UserID)
	assert.Equal(t, models.PostStatusToVerify, post.Status)
	assert.Equal(t, b.reader.Nickname, post.User.Nickname)
	assert.Zero(t, post.LikesCount)
	assert.Nil(t, post.Survey)
}

func TestPostService_CreatePostValidation(t *testing.T) {
	b := newBoard(t)
	inactive := testutil.SeedCategory(t, b.db, "OLD", false)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    CreatePostInput
		field string
	}{
		{"blank title", CreatePostInput{Title: "   ", Content: "x", CategoryID: b.category.ID}, "title"},
		{"missing content", CreatePostInput{Title: "t", CategoryID: b.category.ID}, "content"},
		{"missing category", CreatePostInput{Title: "t", Content: "x"}, "category"},
		{"unknown category", CreatePostInput{Title: "t", Content: "x", CategoryID: 999}, "category"},
		{"inactive category", CreatePostInput{Title: "t", Content: "x", CategoryID: inactive.ID}, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.UserID = b.reader.ID
			_, err := b.posts.CreatePost(ctx, tt.in)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}
}

func TestPostService_ToggleLike(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()

	res, err := b.posts.ToggleLike(ctx, b.reader.ID, b.post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(1), res.LikesCount)
	assert.Equal(t, int64(1), b.countNotifications(t, b.author.ID))

	res, err = b.posts.ToggleLike(ctx, b.reader.ID, b.post.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Zero(t, res.LikesCount)
	assert.Equal(t, int64(1), b.countNotifications(t, b.author.ID), "unlike does not notify")

	post, err := b.posts.GetPost(ctx, b.post.ID, b.reader.ID)
	require.NoError(t, err)
	assert.False(t, post.Liked)
}

func TestPostService_ToggleLikeCountsDistinctUsers(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	welder := testutil.SeedUser(t, b.db, "welder", false)

	toggles := []struct {
		user      *models.User
		wantLiked bool
		wantCount int64
	}{
		{b.reader, true, 1},
		{b.staff, true, 2},
		{welder, true, 3},
		{b.staff, false, 2},
		{welder, false, 1},
		{welder, true, 2},
		{b.reader, false, 1},
		{b.reader, true, 2},
	}
	for i, tt := range toggles {
		res, err := b.posts.ToggleLike(ctx, tt.user.ID, b.post.ID)
		require.NoError(t, err, "toggle %d", i)
		assert.Equal(t, tt.wantLiked, res.Liked, "toggle %d", i)
		assert.Equal(t, tt.wantCount, res.LikesCount, "toggle %d", i)
	}

	// reader and welder end liked, staff ends unliked
	post, err := b.posts.GetPost(ctx, b.post.ID, b.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), post.LikesCount)
	assert.False(t, post.Liked)

	var rows int64
	require.NoError(t, b.db.Model(&models.Like{}).Where("post_id = ?", b.post.ID).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
}

func TestPostService_ToggleLikeOwnPostDoesNotNotify(t *testing.T) {
	b := newBoard(t)
	res, err := b.posts.ToggleLike(context.Background(), b.author.ID, b.post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Zero(t, b.countNotifications(t, b.author.ID))
}

func TestPostService_ToggleLikeMissingPost(t *testing.T) {
	b := newBoard(t)
	_, err := b.posts.ToggleLike(context.Background(), b.reader.ID, 4242)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostService_ToggleLikeSurvivesNotifierFailure(t *testing.T) {
	b := newBoard(t)
	notifier := &failingNotifier{}
	svc := NewPostService(repository.NewPostRepository(b.db), repository.NewCategoryRepository(b.db), notifier)

	res, err := svc.ToggleLike(context.Background(), b.reader.ID, b.post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, notifier.calls)
}

func TestPostService_ToggleLikeRace(t *testing.T) {
	b := newBoard(t)
	repo := racingPostRepo{PostRepository: repository.NewPostRepository(b.db)}
	svc := NewPostService(repo, repository.NewCategoryRepository(b.db), b.notifications)

	_, err := svc.ToggleLike(context.Background(), b.reader.ID, b.post.ID)
	assert.True(t, models.HasCode(err, models.CodeDuplicateInteraction), "got %v", err)
	assert.Zero(t, b.countNotifications(t, b.author.ID))
}

func TestPostService_UpdatePost(t *testing.T) {
	b := newBoard(t)
	other := testutil.SeedCategory(t, b.db, "PROCES", true)
	ctx := context.Background()

	_, err := b.posts.UpdatePost(ctx, Actor{ID: b.reader.ID}, UpdatePostInput{PostID: b.post.ID, Title: ptr("Hijack")})
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	_, err = b.posts.UpdatePost(ctx, Actor{ID: b.staff.ID, IsStaff: true}, UpdatePostInput{PostID: b.post.ID, Title: ptr("Hijack")})
	assert.True(t, models.HasCode(err, models.CodeForbidden), "staff cannot edit someone else's idea")

	updated, err := b.posts.UpdatePost(ctx, Actor{ID: b.author.ID}, UpdatePostInput{
		PostID:     b.post.ID,
		Title:      ptr("Label every shelf"),
		CategoryID: ptr(other.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "Label every shelf", updated.Title)
	assert.Equal(t, "Label the shelves body", updated.Content)
	assert.Equal(t, other.ID, updated.CategoryID)

	_, err = b.posts.UpdatePost(ctx, Actor{ID: b.author.ID}, UpdatePostInput{PostID: b.post.ID, Content: ptr("  ")})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestPostService_SetStatus(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()

	_, err := b.posts.SetStatus(ctx, Actor{ID: b.author.ID}, b.post.ID, models.PostStatusSubmitted)
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	_, err = b.posts.SetStatus(ctx, Actor{ID: b.staff.ID, IsStaff: true}, b.post.ID, models.PostStatus("DONE"))
	assert.True(t, models.HasCode(err, models.CodeValidation))

	post, err := b.posts.SetStatus(ctx, Actor{ID: b.staff.ID, IsStaff: true}, b.post.ID, models.PostStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusInProgress, post.Status)

	reloaded, err := b.posts.GetPost(ctx, b.post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusInProgress, reloaded.Status)
}

func TestPostService_DeletePost(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	second := testutil.SeedPost(t, b.db, b.author, b.category, "Second")

	err := b.posts.DeletePost(ctx, Actor{ID: b.reader.ID}, b.post.ID)
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	require.NoError(t, b.posts.DeletePost(ctx, Actor{ID: b.author.ID}, b.post.ID))
	require.NoError(t, b.posts.DeletePost(ctx, Actor{ID: b.staff.ID, IsStaff: true}, second.ID))

	_, err = b.posts.GetPost(ctx, b.post.ID, 0)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostService_ListPostsAndCategories(t *testing.T) {
	b := newBoard(t)
	testutil.SeedCategory(t, b.db, "OLD", false)
	ctx := context.Background()
	newer := testutil.SeedPost(t, b.db, b.reader, b.category, "Newer")

	_, err := b.posts.ToggleLike(ctx, b.author.ID, newer.ID)
	require.NoError(t, err)

	posts, err := b.posts.ListPosts(ctx, 20, 0, b.author.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)
	assert.True(t, posts[0].Liked)
	assert.Equal(t, int64(1), posts[0].LikesCount)
	assert.False(t, posts[1].Liked)

	categories, err := b.posts.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "BHP", categories[0].Name)
}
