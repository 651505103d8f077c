package repository

import (
	"context"

	"kaizen/internal/models"

	"gorm.io/gorm"
)

// ImageRepository defines storage operations for post attachments.
type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	ListByPost(ctx context.Context, postID uint) ([]models.Image, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a repository implementation for image metadata.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *models.Image) error {
	return r.db.WithContext(ctx).Omit("Post").Create(image).Error
}

func (r *imageRepository) ListByPost(ctx context.Context, postID uint) ([]models.Image, error) {
	var images []models.Image
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("id ASC").Find(&images).Error
	return images, err
}
