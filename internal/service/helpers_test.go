package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"kaizen/internal/config"
	"kaizen/internal/models"
	"kaizen/internal/notifications"
	"kaizen/internal/repository"
	"kaizen/internal/testutil"

	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret-test-secret-test-secret!",
		JWTIssuer:     "kaizen-api",
		JWTAudience:   "kaizen-client",
		JWTAccessTTL:  15 * time.Minute,
		JWTRefreshTTL: 7 * 24 * time.Hour,
	}
}

// recordingPublisher captures realtime events instead of sending them.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[uint][]notifications.Event
	err    error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[uint][]notifications.Event)}
}

func (p *recordingPublisher) PublishUser(_ context.Context, userID uint, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events[userID] = append(p.events[userID], event)
	return nil
}

func (p *recordingPublisher) For(userID uint) []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifications.Event(nil), p.events[userID]...)
}

type staticFlags map[string]bool

func (f staticFlags) Enabled(name string, _ uint) bool {
	return f[name]
}

// failingNotifier always fails, to check that interactions survive it.
type failingNotifier struct {
	calls int
}

func (n *failingNotifier) Notify(context.Context, NotifyInput) (*models.Notification, error) {
	n.calls++
	return nil, models.NewInternalError(gorm.ErrInvalidDB)
}

// board wires the services over one sqlite database.
type board struct {
	db            *gorm.DB
	publisher     *recordingPublisher
	notifications *NotificationService
	posts         *PostService
	comments      *CommentService

	author   *models.User
	reader   *models.User
	staff    *models.User
	category *models.Category
	post     *models.Post
}

func newBoard(t *testing.T) *board {
	t.Helper()
	db := testutil.SQLiteDB(t)

	b := &board{db: db, publisher: newRecordingPublisher()}
	notificationRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)

	b.notifications = NewNotificationService(notificationRepo, b.publisher, staticFlags{"realtime_notifications": true})
	b.posts = NewPostService(postRepo, repository.NewCategoryRepository(db), b.notifications)
	b.comments = NewCommentService(repository.NewCommentRepository(db), postRepo, b.notifications)

	b.author = testutil.SeedUser(t, db, "author", false)
	b.reader = testutil.SeedUser(t, db, "reader", false)
	b.staff = testutil.SeedUser(t, db, "staff", true)
	b.category = testutil.SeedCategory(t, db, "BHP", true)
	b.post = testutil.SeedPost(t, db, b.author, b.category, "Label the shelves")
	return b
}

func (b *board) countNotifications(t *testing.T, recipientID uint) int64 {
	t.Helper()
	var n int64
	if err := b.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&n).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}

func ptr[T any](v T) *T {
	return &v
}
