package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_PublishWithoutRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, Event{Type: EventNotificationCreated}))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))

	var missing *Notifier
	assert.NoError(t, missing.PublishUser(context.Background(), 1, Event{}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
		id, ok := ParseUserChannel(tt.expected)
		assert.True(t, ok)
		assert.Equal(t, tt.userID, id)
	}
}

func TestParseUserChannel_Rejects(t *testing.T) {
	t.Parallel()
	for _, channel := range []string{"notifications:user:", "notifications:user:abc", "notifications:user:0", "chat:conv:1"} {
		_, ok := ParseUserChannel(channel)
		assert.False(t, ok, channel)
	}
}
