package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first and on a miss calls fetch, which must populate
// dest, then stores dest with ttl. Cache errors fall through to fetch.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// MarkWithTTL sets key to "1" for ttl. A non-positive ttl is a no-op.
func MarkWithTTL(ctx context.Context, key string, ttl time.Duration) error {
	if client == nil || ttl <= 0 {
		return nil
	}
	return client.Set(ctx, key, "1", ttl).Err()
}

// Exists reports whether key is present. found is false when Redis is not
// configured or the lookup failed.
func Exists(ctx context.Context, key string) (found bool, err error) {
	if client == nil {
		return false, nil
	}
	n, err := client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var errGenerationMoved = errors.New("cache: generation moved during fetch")

// AsideGuarded is Aside for keys invalidated through BumpGeneration. The
// fetched value is stored only if genKey is unchanged since before fetch,
// so a stale read cannot overwrite a newer invalidation.
func AsideGuarded(ctx context.Context, key, genKey string, dest any, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}
	if found, err := GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	gen := generation(ctx, client, genKey)
	if err := fetch(); err != nil {
		return err
	}

	b, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	_ = client.Watch(ctx, func(tx *redis.Tx) error {
		if generation(ctx, tx, genKey) != gen {
			return errGenerationMoved
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, genKey)
	return nil
}

// BumpGeneration deletes key and advances genKey, aborting any AsideGuarded
// write that started before it.
func BumpGeneration(ctx context.Context, key, genKey string) {
	if client == nil {
		return
	}
	_, _ = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		return nil
	})
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, c stringGetter, genKey string) string {
	v, err := c.Get(ctx, genKey).Result()
	if err != nil {
		return ""
	}
	return v
}
