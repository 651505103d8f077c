// Package seed provides helpers to create demo data for development and
// tests. It is never run by the server.
package seed

import (
	"context"
	"fmt"
	"log"

	"kaizen/internal/models"
	"kaizen/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers           int
	NumPosts           int
	MaxCommentsPerPost int
	MaxDays            int
	ShouldClean        bool
	// FastHash uses the minimum bcrypt cost.
	FastHash   bool
	RandSeed   int64
	HourlyRate decimal.Decimal
}

// Stats reports what one Seed run created.
type Stats struct {
	Users    int
	Posts    int
	Surveys  int
	Comments int
	Likes    int
}

// baseAccount is a fixed login that always exists after seeding.
type baseAccount struct {
	username, email, password string
	staff                     bool
}

var baseAccounts = []baseAccount{
	{"admin", "admin@example.com", "admin123", true},
	{"user1234", "user1@example.com", "user1234", false},
	{"user9876", "user2@example.com", "user9876", false},
}

// DefaultCategories are created if missing.
var DefaultCategories = []string{"BHP", "PROCES", "JAKOSC", "LOGISTYKA", "5S"}

var samplePosts = []struct {
	title, content, category string
	status                   models.PostStatus
}{
	{"Bezpieczniejsze stanowisko pakowania", "Dodanie osłon i oznaczeń poprawi bezpieczeństwo pracy.", "BHP", models.PostStatusToVerify},
	{"Skrócenie czasu przezbrojeń", "Standaryzacja narzędzi i checklisty skrócą zmianę linii.", "PROCES", models.PostStatusInProgress},
	{"Lepsza kontrola jakości etykiet", "Wprowadzenie wzorca referencyjnego zmniejszy liczbę błędów.", "JAKOSC", models.PostStatusImplemented},
}

var sampleComments = []string{
	"Świetny pomysł, to znacznie ułatwi pracę!",
	"Czy braliście pod uwagę koszty wdrożenia?",
	"Popieram, widziałem podobne rozwiązanie w innym dziale.",
	"Dobra robota!",
	"Możemy to przedyskutować na najbliższym spotkaniu?",
	"Zdecydowanie poprawi to bezpieczeństwo.",
}

// Seed populates the database with demo data. Base accounts and categories
// are created only when missing. Posts, comments and likes are added only
// when the board has no posts yet.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Stats, error) {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)
	stats := &Stats{}

	if opts.ShouldClean {
		if err := clearData(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, opts)

	users, err := ensureBaseAccounts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to create base accounts: %w", err)
	}
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, u)
		stats.Users++
	}
	log.Printf("✓ %d users available", len(users))

	categories, err := EnsureCategories(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create categories: %w", err)
	}
	log.Printf("✓ %d categories available", len(categories))

	var existing int64
	if err := db.WithContext(ctx).Model(&models.Post{}).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		log.Println("⚠️  Posts already exist. Skipping posts, comments and likes.")
		return stats, nil
	}

	authors := nonStaff(users)
	posts := make([]*models.Post, 0, len(samplePosts)+opts.NumPosts)
	for i, sp := range samplePosts {
		sp := sp
		post, err := f.CreatePost(ctx, authors[i%len(authors)], categories[sp.category], func(p *models.Post) {
			p.Title = sp.title
			p.Content = sp.content
			p.Status = sp.status
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}
	names := categoryNames(categories)
	for i := 0; i < opts.NumPosts && len(names) > 0; i++ {
		category := categories[f.fake.RandomString(names)]
		post, err := f.CreatePost(ctx, authors[f.fake.Number(0, len(authors)-1)], category)
		if err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}
	stats.Posts = len(posts)
	log.Printf("✓ %d posts created", stats.Posts)

	maxComments := opts.MaxCommentsPerPost
	if maxComments <= 0 {
		maxComments = 3
	}
	for _, post := range posts {
		if f.fake.Bool() {
			if _, err := f.CreateSurvey(ctx, post); err != nil {
				return nil, fmt.Errorf("failed to create survey: %w", err)
			}
			stats.Surveys++
		}
		for c := f.fake.Number(1, maxComments); c > 0; c-- {
			if _, err := f.CreateComment(ctx, users[f.fake.Number(0, len(users)-1)], post, ""); err != nil {
				return nil, fmt.Errorf("failed to create comment: %w", err)
			}
			stats.Comments++
		}
		for _, u := range users {
			if u.ID == post.UserID || f.fake.Number(0, 2) != 0 {
				continue
			}
			if err := f.CreateLike(ctx, u, post); err != nil {
				return nil, fmt.Errorf("failed to create like: %w", err)
			}
			stats.Likes++
		}
	}
	log.Printf("✓ %d surveys, %d comments, %d likes created", stats.Surveys, stats.Comments, stats.Likes)

	log.Println("🎉 Database seeding completed successfully!")
	return stats, nil
}

func ensureBaseAccounts(ctx context.Context, f *Factory) ([]*models.User, error) {
	users := make([]*models.User, 0, len(baseAccounts))
	for _, acc := range baseAccounts {
		existing, err := f.users.GetByUsername(ctx, acc.username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			log.Printf("User %q already exists.", acc.username)
			users = append(users, existing)
			continue
		}
		acc := acc
		u, err := f.CreateUser(ctx, func(u *models.User) {
			u.Username = acc.username
			u.Email = acc.email
			u.Password = acc.password
			u.IsStaff = acc.staff
		})
		if err != nil {
			return nil, err
		}
		log.Printf("User %q created.", acc.username)
		users = append(users, u)
	}
	return users, nil
}

// EnsureCategories creates every DefaultCategories entry that is missing.
func EnsureCategories(ctx context.Context, db *gorm.DB) (map[string]*models.Category, error) {
	repo := repository.NewCategoryRepository(db)
	out := make(map[string]*models.Category, len(DefaultCategories))
	for _, name := range DefaultCategories {
		c, err := repo.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = c
	}
	return out, nil
}

func categoryNames(categories map[string]*models.Category) []string {
	names := make([]string, 0, len(categories))
	for _, name := range DefaultCategories {
		if c, ok := categories[name]; ok && c.IsActive {
			names = append(names, name)
		}
	}
	return names
}

func nonStaff(users []*models.User) []*models.User {
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if !u.IsStaff {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return users
	}
	return out
}

// clearData removes everything except categories, children first.
func clearData(ctx context.Context, db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{
		&models.Notification{},
		&models.Like{},
		&models.Comment{},
		&models.Survey{},
		&models.Image{},
		&models.Post{},
		&models.BlacklistedToken{},
		&models.User{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
