package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configure a RedisStore.
type RedisOptions struct {
	Prefix string        // key prefix, "agentchat:cache:" by default
	TTL    time.Duration // zero keeps entries forever
}

// RedisStore keeps responses in Redis so several processes share one cache.
type RedisStore struct {
	client redis.UniversalClient
	opts   RedisOptions
}

// NewRedisStore wraps an existing client. The store does not own the client
// unless closed through Close.
func NewRedisStore(client redis.UniversalClient, optFns ...func(o *RedisOptions)) *RedisStore {
	opts := RedisOptions{Prefix: "agentchat:cache:"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisStore{client: client, opts: opts}
}

func (r *RedisStore) key(k string) string { return r.opts.Prefix + k }

// Get fetches key; redis.Nil is a miss.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores key with the configured TTL.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, r.opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisStore) Close() error { return r.client.Close() }
