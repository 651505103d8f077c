package service

import (
	"context"
	"errors"
	"time"

	"kaizen/internal/models"
	"kaizen/internal/observability"
	"kaizen/internal/repository"
	"kaizen/internal/survey"
	"kaizen/internal/validation"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// SurveyMethod selects whether Upsert creates a survey or replaces one.
type SurveyMethod string

const (
	SurveyCreate SurveyMethod = "create"
	SurveyUpdate SurveyMethod = "update"
)

// UpsertSurveyInput carries the author's answers. Pointers distinguish a
// missing answer from zero.
type UpsertSurveyInput struct {
	UserID          uint         `json:"-"`
	PostID          uint         `json:"-"`
	Method          SurveyMethod `json:"-"`
	FrequencyValue  *int         `json:"frequency_value" validate:"required,min=0,max=2147483647"`
	FrequencyUnit   string       `json:"frequency_unit" validate:"required,oneof=DAY WEEK MONTH"`
	AffectedPeople  *int         `json:"affected_people" validate:"required,min=0,max=2147483647"`
	TimeLostMinutes *int         `json:"time_lost_minutes" validate:"required,min=0,max=2147483647"`
}

// maxStoredEstimate bounds the stored estimates: numeric(12,2) keeps ten
// digits before the decimal point.
var maxStoredEstimate = decimal.New(1, 10)

const estimateTooLarge = "Ensure that there are no more than 10 digits before the decimal point."

type SurveyService struct {
	surveys    repository.SurveyRepository
	posts      repository.PostRepository
	calculator *survey.Calculator
	now        func() time.Time
}

func NewSurveyService(
	surveys repository.SurveyRepository,
	posts repository.PostRepository,
	calculator *survey.Calculator,
) *SurveyService {
	return &SurveyService{
		surveys:    surveys,
		posts:      posts,
		calculator: calculator,
		now:        time.Now,
	}
}

// GetSurvey returns the survey of a post, NotFound if the post or its survey is missing.
func (s *SurveyService) GetSurvey(ctx context.Context, postID uint) (*models.Survey, error) {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, err
	}
	existing, err := s.surveys.GetByPostID(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if existing == nil {
		return nil, models.NewNotFoundError("Survey for post", postID)
	}
	return existing, nil
}

// Upsert creates or replaces the survey of a post. Only the post author may
// do either, and the estimates are always recomputed from the new answers.
func (s *SurveyService) Upsert(ctx context.Context, in UpsertSurveyInput) (result *models.Survey, err error) {
	ctx, span := observability.StartSpan(ctx, "SurveyService.Upsert",
		attribute.Int64("post.id", int64(in.PostID)),
		attribute.String("survey.method", string(in.Method)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if in.Method != SurveyCreate && in.Method != SurveyUpdate {
		return nil, models.NewValidationError("Unsupported survey method")
	}

	post, err := s.loadPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(Actor{ID: in.UserID}, ActionManageSurvey, post.UserID); err != nil {
		return nil, err
	}

	existing, err := s.surveys.GetByPostID(ctx, in.PostID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	switch {
	case in.Method == SurveyCreate && existing != nil:
		return nil, models.NewAlreadyExistsError("Survey for this post")
	case in.Method == SurveyUpdate && existing == nil:
		return nil, models.NewNotFoundError("Survey for post", in.PostID)
	}

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	answers := survey.Input{
		FrequencyValue:  *in.FrequencyValue,
		FrequencyUnit:   models.FrequencyUnit(in.FrequencyUnit),
		AffectedPeople:  *in.AffectedPeople,
		TimeLostMinutes: *in.TimeLostMinutes,
	}
	computed := s.calculator.Compute(answers)
	if err := checkStoredEstimates(computed); err != nil {
		return nil, err
	}
	observability.SurveyComputations.WithLabelValues(string(in.Method)).Inc()

	record := &models.Survey{
		PostID:                    in.PostID,
		FrequencyValue:            answers.FrequencyValue,
		FrequencyUnit:             answers.FrequencyUnit,
		AffectedPeople:            answers.AffectedPeople,
		TimeLostMinutes:           answers.TimeLostMinutes,
		EstimatedTimeSavingsHours: computed.HoursSaved,
		EstimatedFinancialSavings: computed.FinancialSavings,
	}

	if in.Method == SurveyCreate {
		if err := s.surveys.Create(ctx, record); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, models.NewAlreadyExistsError("Survey for this post")
			}
			return nil, models.NewInternalError(err)
		}
		return record, nil
	}

	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = s.now()
	if err := s.surveys.Update(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Survey for post", in.PostID)
		}
		return nil, models.NewInternalError(err)
	}
	return record, nil
}

func checkStoredEstimates(r survey.Result) error {
	fields := map[string]string{}
	if r.HoursSaved.Abs().GreaterThanOrEqual(maxStoredEstimate) {
		fields["estimated_time_savings_hours"] = estimateTooLarge
	}
	if r.FinancialSavings.Abs().GreaterThanOrEqual(maxStoredEstimate) {
		fields["estimated_financial_savings"] = estimateTooLarge
	}
	if len(fields) > 0 {
		return models.NewFieldValidationError("Survey answers produce estimates too large to store", fields)
	}
	return nil
}

func (s *SurveyService) loadPost(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}
