package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "runagent:reply:"

// RedisStore keeps replies in Redis under runagent:reply:<key>.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to addr and checks the connection.
// A zero ttl keeps entries forever.
func NewRedisStore(addr string, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis cache needs an address")
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	log.Infof("Reply cache connected to Redis at %s", addr)

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

// Get looks up a cached reply. Lookup errors count as misses.
func (r *RedisStore) Get(ctx context.Context, model, message string) (string, bool) {
	if r == nil || r.client == nil {
		return "", false
	}

	reply, err := r.client.Get(ctx, redisKeyPrefix+Key(model, message)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnf("Reply cache lookup failed: %v", err)
		}
		return "", false
	}
	return reply, true
}

// Put stores a reply.
func (r *RedisStore) Put(ctx context.Context, model, message, reply string) error {
	if r == nil || r.client == nil {
		return nil
	}

	if err := r.client.Set(ctx, redisKeyPrefix+Key(model, message), reply, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
