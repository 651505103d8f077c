// Package bootstrap connects the runtime dependencies shared by the
// server and the command line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"kaizen/internal/cache"
	"kaizen/internal/config"
	"kaizen/internal/database"
	"kaizen/internal/middleware"
	"kaizen/internal/models"
	"kaizen/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCategories creates the default categories when missing.
	SeedCategories bool
}

// InitRuntime connects to the database and Redis, then runs the optional
// startup bootstrap. The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)

	if err := Prepare(ctx, cfg, db, opts); err != nil {
		return nil, nil, err
	}
	return db, rdb, nil
}

// Prepare runs the startup bootstrap against an open database.
func Prepare(ctx context.Context, cfg *config.Config, db *gorm.DB, opts Options) error {
	if err := ensureDevStaff(ctx, cfg, db); err != nil {
		return fmt.Errorf("failed to bootstrap development staff account: %w", err)
	}
	if opts.SeedCategories {
		if _, err := seed.EnsureCategories(ctx, db); err != nil {
			return fmt.Errorf("failed to seed default categories: %w", err)
		}
	}
	return nil
}

func ensureDevStaff(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapStaff {
		return nil
	}

	username := strings.TrimSpace(cfg.DevStaffUsername)
	if username == "" {
		username = "kaizen_admin"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevStaffEmail))
	if email == "" {
		email = "admin@kaizen.local"
	}
	password := cfg.DevStaffPassword
	if password == "" {
		return errors.New("DEV_STAFF_PASSWORD must be set when DEV_BOOTSTRAP_STAFF is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash staff password: %w", err)
	}

	var staff models.User
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("username = ?", username).First(&staff).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			staff = models.User{
				Username: username,
				Email:    email,
				Password: string(hashedPassword),
				Nickname: username,
				Gender:   models.GenderUnspecified,
				IsStaff:  true,
				IsActive: true,
			}
			return tx.Create(&staff).Error
		case findErr != nil:
			return findErr
		}

		updates := map[string]any{"is_staff": true, "is_active": true}
		if cfg.DevStaffResetPassword {
			updates["email"] = email
			updates["password"] = string(hashedPassword)
		}
		return tx.Model(&models.User{}).Where("id = ?", staff.ID).Updates(updates).Error
	})
	if err != nil {
		return err
	}

	// Drop any cached projection that predates the promotion.
	cache.InvalidateUser(ctx, staff.ID)
	middleware.Logger.InfoContext(ctx, "development staff account ensured",
		slog.String("username", username),
		slog.String("email", email),
	)
	return nil
}
