package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	UnreadCountKeyPrefix = "notifications:unread:%d"
	UnreadCountGenPrefix = "notifications:unread:%d:gen"
	BlacklistKeyPrefix   = "blacklist:%s"
)

const (
	UserTTL        = 5 * time.Minute
	UnreadCountTTL = time.Minute

	generationTTL = 24 * time.Hour
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func UnreadCountKey(userID uint) string {
	return fmt.Sprintf(UnreadCountKeyPrefix, userID)
}

func UnreadCountGenKey(userID uint) string {
	return fmt.Sprintf(UnreadCountGenPrefix, userID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateUnreadCount(ctx context.Context, userID uint) {
	BumpGeneration(ctx, UnreadCountKey(userID), UnreadCountGenKey(userID))
}
