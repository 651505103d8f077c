package service

import (
	"context"

	"kaizen/internal/cache"
	"kaizen/internal/models"
	"kaizen/internal/repository"
)

const (
	defaultUserPageSize = 100
	maxUserPageSize     = 500
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetMe returns the full profile of the signed-in user.
func (s *UserService) GetMe(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ListUsers returns the public projection of active users.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.UserPublic, error) {
	if limit <= 0 {
		limit = defaultUserPageSize
	}
	limit = min(limit, maxUserPageSize)
	offset = max(offset, 0)

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserPublic, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// Actor resolves the capabilities of userID, reading through the user cache.
func (s *UserService) Actor(ctx context.Context, userID uint) (Actor, error) {
	var public models.UserPublic
	err := cache.Aside(ctx, cache.UserKey(userID), &public, cache.UserTTL, func() error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		public = user.Public()
		return nil
	})
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: public.ID, IsStaff: public.IsStaff}, nil
}
