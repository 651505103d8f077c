package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"kaizen/internal/middleware"
	"kaizen/internal/models"
	"kaizen/internal/observability"
	"kaizen/internal/repository"
	"kaizen/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// Notifier records interaction notifications. NotificationService implements it.
type Notifier interface {
	Notify(ctx context.Context, in NotifyInput) (*models.Notification, error)
}

type PostService struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	notifier   Notifier
	now        func() time.Time
}

type CreatePostInput struct {
	UserID     uint   `json:"-"`
	Title      string `json:"title" validate:"notblank,max=200"`
	Content    string `json:"content" validate:"notblank"`
	CategoryID uint   `json:"category" validate:"required"`
}

type UpdatePostInput struct {
	PostID     uint    `json:"-"`
	Title      *string `json:"title" validate:"omitempty,notblank,max=200"`
	Content    *string `json:"content" validate:"omitempty,notblank"`
	CategoryID *uint   `json:"category" validate:"omitempty,gt=0"`
}

// LikeResult is the state of a post's like after a toggle.
type LikeResult struct {
	Liked      bool
	LikesCount int64
}

func NewPostService(
	posts repository.PostRepository,
	categories repository.CategoryRepository,
	notifier Notifier,
) *PostService {
	return &PostService{
		posts:      posts,
		categories: categories,
		notifier:   notifier,
		now:        time.Now,
	}
}

// ListCategories returns the categories a new post can be filed under.
func (s *PostService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

// CreatePost files a new idea for in.UserID. New posts always start in TO_VERIFY.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.requireActiveCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:      in.Title,
		Content:    in.Content,
		UserID:     in.UserID,
		CategoryID: in.CategoryID,
		Status:     models.PostStatusToVerify,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.GetPost(ctx, post.ID, in.UserID)
}

func (s *PostService) requireActiveCategory(ctx context.Context, categoryID uint) error {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewFieldValidationError("Invalid input", map[string]string{
				"category": "Selected category does not exist.",
			})
		}
		return models.NewInternalError(err)
	}
	if !category.IsActive {
		return models.NewFieldValidationError("Invalid input", map[string]string{
			"category": "Selected category is not active.",
		})
	}
	return nil
}

// GetPost loads a post with its counts. currentUserID may be zero for anonymous readers.
func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	posts, err := s.posts.List(ctx, limit, offset, currentUserID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// UpdatePost changes the provided fields of a post owned by actor.
func (s *PostService) UpdatePost(ctx context.Context, actor Actor, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetPost(ctx, in.PostID, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, ActionUpdatePost, post.UserID); err != nil {
		return nil, err
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	if in.Content != nil {
		c := strings.TrimSpace(*in.Content)
		in.Content = &c
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.CategoryID != nil && *in.CategoryID != post.CategoryID {
		if err := s.requireActiveCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		post.CategoryID = *in.CategoryID
	}
	post.UpdatedAt = s.now()

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.GetPost(ctx, post.ID, actor.ID)
}

// SetStatus moves a post through the review workflow. Staff only.
func (s *PostService) SetStatus(ctx context.Context, actor Actor, postID uint, status models.PostStatus) (*models.Post, error) {
	post, err := s.GetPost(ctx, postID, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, ActionSetPostStatus, post.UserID); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, models.NewFieldValidationError("Invalid input", map[string]string{
			"status": `"` + string(status) + `" is not a valid choice.`,
		})
	}
	if err := s.posts.UpdateStatus(ctx, postID, status); err != nil {
		return nil, models.NewInternalError(err)
	}
	post.Status = status
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, actor Actor, postID uint) error {
	post, err := s.GetPost(ctx, postID, actor.ID)
	if err != nil {
		return err
	}
	if err := Authorize(actor, ActionDeletePost, post.UserID); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", postID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// ToggleLike likes the post for userID, or removes the like if one exists.
// Only a new like notifies the author.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (result *LikeResult, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.ToggleLike",
		attribute.Int64("post.id", int64(postID)),
		attribute.Int64("user.id", int64(userID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.GetPost(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	liked, err := s.posts.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if liked {
		if _, err := s.posts.Unlike(ctx, userID, postID); err != nil {
			return nil, models.NewInternalError(err)
		}
		observability.LikeToggles.WithLabelValues("unliked").Inc()
	} else {
		if err := s.posts.Like(ctx, userID, postID); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				observability.LikeToggles.WithLabelValues("duplicate").Inc()
				return nil, models.NewDuplicateInteractionError("You have already liked this post.")
			}
			return nil, models.NewInternalError(err)
		}
		observability.LikeToggles.WithLabelValues("liked").Inc()
		s.notify(ctx, NotifyInput{
			Type:        models.NotificationLike,
			RecipientID: post.UserID,
			ActorID:     userID,
			PostID:      post.ID,
		})
	}

	count, err := s.posts.LikeCount(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LikeResult{Liked: !liked, LikesCount: count}, nil
}

func (s *PostService) notify(ctx context.Context, in NotifyInput) {
	notify(ctx, s.notifier, in)
}

// notify runs after the interaction is stored; failures never reach the caller.
func notify(ctx context.Context, notifier Notifier, in NotifyInput) {
	if notifier == nil {
		return
	}
	if _, err := notifier.Notify(ctx, in); err != nil {
		observability.NotificationFailures.WithLabelValues("create").Inc()
		middleware.Logger.ErrorContext(ctx, "failed to record notification",
			slog.String("type", string(in.Type)),
			slog.Uint64("post_id", uint64(in.PostID)),
			slog.String("error", err.Error()),
		)
	}
}
