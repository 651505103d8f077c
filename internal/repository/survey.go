package repository

import (
	"context"
	"errors"

	"kaizen/internal/models"

	"gorm.io/gorm"
)

// SurveyRepository persists post surveys.
type SurveyRepository interface {
	GetByPostID(ctx context.Context, postID uint) (*models.Survey, error)
	Create(ctx context.Context, survey *models.Survey) error
	Update(ctx context.Context, survey *models.Survey) error
}

type surveyRepository struct {
	db *gorm.DB
}

// NewSurveyRepository returns a SurveyRepository backed by db.
func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

// GetByPostID returns nil, nil when the post has no survey.
func (r *surveyRepository) GetByPostID(ctx context.Context, postID uint) (*models.Survey, error) {
	var survey models.Survey
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).First(&survey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// Create fails with ErrDuplicate when the post already has a survey.
func (r *surveyRepository) Create(ctx context.Context, survey *models.Survey) error {
	return wrapUnique(r.db.WithContext(ctx).Omit("Post").Create(survey).Error)
}

// Update replaces every input and derived column of an existing survey.
func (r *surveyRepository) Update(ctx context.Context, survey *models.Survey) error {
	res := r.db.WithContext(ctx).
		Model(&models.Survey{}).
		Where("post_id = ?", survey.PostID).
		Select(
			"frequency_value", "frequency_unit", "affected_people", "time_lost_minutes",
			"estimated_time_savings_hours", "estimated_financial_savings", "updated_at",
		).
		Updates(survey)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
