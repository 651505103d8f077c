// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"kaizen/internal/cache"
	"kaizen/internal/database"
	"kaizen/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password is the plain text password of every user created by SeedUser.
const Password = "password123"

// SQLiteDB returns an in-memory database private to the test, migrated with
// every persistent model and with foreign keys enforced.
func SQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// Redis starts a miniredis server and installs it as the cache client for
// the duration of the test.
func Redis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	prev := cache.GetClient()
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(prev)
		_ = rdb.Close()
	})
	return mr, rdb
}

var (
	hashOnce     sync.Once
	passwordHash string
)

// SeedUser inserts an active user whose password is Password.
func SeedUser(t testing.TB, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()
	hashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		passwordHash = string(h)
	})

	u := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  passwordHash,
		Nickname:  "nick_" + username,
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Tester",
		Gender:    models.GenderUnspecified,
		IsStaff:   staff,
		IsActive:  true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func SeedCategory(t testing.TB, db *gorm.DB, name string, active bool) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, IsActive: true}
	require.NoError(t, db.Create(c).Error)
	if !active {
		// the column default would override a false value on insert
		require.NoError(t, db.Model(c).Update("is_active", false).Error)
		c.IsActive = false
	}
	return c
}

func SeedPost(t testing.TB, db *gorm.DB, author *models.User, category *models.Category, title string) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:      title,
		Content:    title + " body",
		UserID:     author.ID,
		CategoryID: category.ID,
		Status:     models.PostStatusToVerify,
	}
	require.NoError(t, db.Omit("User", "Category", "Survey", "Images").Create(p).Error)
	return p
}

// ImageRepoStub is an in-memory image repository.
type ImageRepoStub struct {
	mu     sync.Mutex
	items  []models.Image
	nextID uint
	// CreateErr, when set, is returned by Create.
	CreateErr error
}

func NewImageRepoStub() *ImageRepoStub {
	return &ImageRepoStub{nextID: 1}
}

func (s *ImageRepoStub) Create(_ context.Context, img *models.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	img.ID = s.nextID
	s.nextID++
	s.items = append(s.items, *img)
	return nil
}

func (s *ImageRepoStub) ListByPost(_ context.Context, postID uint) ([]models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Image
	for _, item := range s.items {
		if item.PostID == postID {
			out = append(out, item)
		}
	}
	return out, nil
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, G: 40, B: 40, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
