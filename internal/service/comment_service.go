package service

import (
	"context"
	"errors"
	"strings"

	"kaizen/internal/models"
	"kaizen/internal/observability"
	"kaizen/internal/repository"
	"kaizen/internal/validation"

	"gorm.io/gorm"
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	notifier Notifier
}

type CreateCommentInput struct {
	UserID  uint   `json:"-"`
	PostID  uint   `json:"-"`
	Content string `json:"text" validate:"notblank,max=10000"`
}

type UpdateCommentInput struct {
	CommentID uint   `json:"-"`
	Content   string `json:"text" validate:"notblank,max=10000"`
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	notifier Notifier,
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		notifier: notifier,
	}
}

// CreateComment adds a comment to a post. Anyone signed in may comment;
// the post author is notified unless they wrote it.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, in.PostID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, models.NewInternalError(err)
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		PostID:  post.ID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.CommentsCreated.Inc()

	commentID := comment.ID
	notify(ctx, s.notifier, NotifyInput{
		Type:        models.NotificationComment,
		RecipientID: post.UserID,
		ActorID:     in.UserID,
		PostID:      post.ID,
		CommentID:   &commentID,
	})

	return s.GetComment(ctx, comment.ID)
}

func (s *CommentService) GetComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}

// ListComments returns a post's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// UpdateComment rewrites the body of actor's own comment.
func (s *CommentService) UpdateComment(ctx context.Context, actor Actor, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.GetComment(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, ActionUpdateComment, comment.UserID); err != nil {
		return nil, err
	}

	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.comments.UpdateContent(ctx, comment.ID, in.Content); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", in.CommentID)
		}
		return nil, models.NewInternalError(err)
	}
	return s.GetComment(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, actor Actor, commentID uint) error {
	comment, err := s.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if err := Authorize(actor, ActionDeleteComment, comment.UserID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Comment", commentID)
		}
		return models.NewInternalError(err)
	}
	return nil
}
