package seed

import (
	"context"
	"fmt"
	"time"

	"kaizen/internal/models"
	"kaizen/internal/repository"
	"kaizen/internal/survey"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db         *gorm.DB
	users      repository.UserRepository
	calculator *survey.Calculator
	fake       *gofakeit.Faker
	opts       Options
	hashes     map[string]string
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed picks a
// time based seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:         db,
		users:      repository.NewUserRepository(db),
		calculator: survey.NewCalculator(opts.HourlyRate),
		fake:       gofakeit.New(seed),
		opts:       opts,
		hashes:     make(map[string]string),
	}
}

func (f *Factory) hash(password string) (string, error) {
	if h, ok := f.hashes[password]; ok {
		return h, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.FastHash {
		cost = bcrypt.MinCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	f.hashes[password] = string(h)
	return string(h), nil
}

// CreateUser persists a fake user with the password DefaultPassword. The
// nickname is left empty so the repository generates one.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.fake.FirstName(), f.fake.LastName()
	username := fmt.Sprintf("%s%d", f.fake.Username(), f.fake.Number(100, 99999))
	user := &models.User{
		Username:  username,
		Email:     fmt.Sprintf("%s@example.com", username),
		FirstName: first,
		LastName:  last,
		Gender:    models.Gender(f.fake.RandomString([]string{"male", "female", "other", "unspecified"})),
		IsActive:  true,
		Password:  DefaultPassword,
	}
	for _, override := range overrides {
		override(user)
	}

	hashed, err := f.hash(user.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hashed

	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a fake idea written by user. CreatedAt is spread
// over the last opts.MaxDays days.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, category *models.Category, overrides ...func(*models.Post)) (*models.Post, error) {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.fake.Number(0, maxDays*24*60)) * time.Minute

	post := &models.Post{
		Title:      f.fake.Sentence(5),
		Content:    f.fake.Paragraph(1, 3, 8, "\n"),
		UserID:     user.ID,
		CategoryID: category.ID,
		Status: models.PostStatus(f.fake.RandomString([]string{
			string(models.PostStatusToVerify),
			string(models.PostStatusSubmitted),
			string(models.PostStatusInProgress),
			string(models.PostStatusImplemented),
		})),
		CreatedAt: time.Now().Add(-back),
	}
	post.UpdatedAt = post.CreatedAt
	for _, override := range overrides {
		override(post)
	}

	if err := f.db.WithContext(ctx).Omit("User", "Category", "Survey", "Images").Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateSurvey attaches a survey with random answers to post.
func (f *Factory) CreateSurvey(ctx context.Context, post *models.Post) (*models.Survey, error) {
	in := survey.Input{
		FrequencyValue:  f.fake.Number(1, 10),
		FrequencyUnit:   models.FrequencyUnit(f.fake.RandomString([]string{"DAY", "WEEK", "MONTH"})),
		AffectedPeople:  f.fake.Number(1, 25),
		TimeLostMinutes: f.fake.Number(1, 60),
	}
	result := f.calculator.Compute(in)

	s := &models.Survey{
		PostID:                    post.ID,
		FrequencyValue:            in.FrequencyValue,
		FrequencyUnit:             in.FrequencyUnit,
		AffectedPeople:            in.AffectedPeople,
		TimeLostMinutes:           in.TimeLostMinutes,
		EstimatedTimeSavingsHours: result.HoursSaved,
		EstimatedFinancialSavings: result.FinancialSavings,
	}
	if err := f.db.WithContext(ctx).Omit("Post").Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// CreateComment persists a comment by user on post. An empty text picks
// one of the sample comments.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post, text string) (*models.Comment, error) {
	if text == "" {
		text = f.fake.RandomString(sampleComments)
	}
	comment := &models.Comment{
		Content: text,
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if err := f.db.WithContext(ctx).Omit("User", "Post").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post. An existing like is not an error.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) error {
	like := &models.Like{UserID: user.ID, PostID: post.ID}
	err := f.db.WithContext(ctx).Omit("User", "Post").Create(like).Error
	if err != nil && !repository.IsDuplicate(err) {
		return err
	}
	return nil
}
