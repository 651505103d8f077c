package repository

import (
	"context"
	"errors"

	"kaizen/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for post categories.
type CategoryRepository interface {
	ListActive(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetOrCreate(ctx context.Context, name string) (*models.Category, error)
	SetActive(ctx context.Context, id uint, active bool) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a CategoryRepository backed by db.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) GetOrCreate(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	category = models.Category{Name: name, IsActive: true}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, wrapUnique(err)
	}
	return &category, nil
}

func (r *categoryRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
