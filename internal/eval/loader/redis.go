package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTimeout bounds a single source lookup
const DefaultRedisTimeout = 2 * time.Second

// StringGetter is the subset of the Redis client used by RedisLoader.
// *redis.Client satisfies it.
type StringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisLoader reads template sources stored as Redis strings at prefix+name.
type RedisLoader struct {
	client  StringGetter
	prefix  string
	timeout time.Duration
}

// NewRedisLoader creates a Redis backed loader
func NewRedisLoader(client StringGetter, prefix string, timeout time.Duration) *RedisLoader {
	if timeout <= 0 {
		timeout = DefaultRedisTimeout
	}
	return &RedisLoader{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
	}
}

// GetSource implements Loader
func (l *RedisLoader) GetSource(name string) (string, error) {
	if _, err := SplitName(name); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	key := l.prefix + name
	src, err := l.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return "", fmt.Errorf("failed to load template %s: %w", key, err)
	}

	return src, nil
}
