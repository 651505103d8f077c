// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"kaizen/internal/models"

	"gorm.io/gorm"
)

const nicknameAttempts = 5

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no user has that username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// Create inserts user. An empty nickname is replaced by a generated one,
// retrying a few times if the generated handle is taken.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	generated := strings.TrimSpace(user.Nickname) == ""
	if !user.Gender.Valid() {
		user.Gender = models.GenderUnspecified
	}

	attempts := 1
	if generated {
		attempts = nicknameAttempts
	}

	var err error
	for i := 0; i < attempts; i++ {
		if generated {
			user.Nickname = models.GenerateNickname()
		}
		err = r.db.WithContext(ctx).Create(user).Error
		if err == nil {
			return nil
		}
		if !isUniqueConstraintError(err) {
			return models.NewInternalError(err)
		}
		if !generated || !strings.Contains(strings.ToLower(err.Error()), "nickname") {
			break
		}
		user.ID = 0
	}
	return models.NewValidationError("User already exists")
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Nickname is already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
