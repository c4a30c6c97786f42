package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/medhublabs/medhub/pkg/session"
)

// Cache is a Redis implementation of the session.Cache interface, for
// deployments where the startup hint should survive a process restart
// on another host.
type Cache struct {
	client *redis.Client
}

// Config options for the Redis cache.
type Config struct {
	Addr     string // host:port
	Password string
	DB       int
}

// New creates a new Redis cache and verifies the connection.
func New(ctx context.Context, config Config) (*Cache, error) {
	if config.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Read returns the payload under key, or session.ErrCacheMiss.
func (c *Cache) Read(ctx context.Context, key string) (string, error) {
	payload, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", session.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to read from redis: %w", err)
	}
	return payload, nil
}

// Write stores the payload under key without expiry; the manager
// deletes it on logout.
func (c *Cache) Write(ctx context.Context, key, payload string) error {
	if err := c.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write to redis: %w", err)
	}
	return nil
}

// Delete removes the key. Absent keys are ignored.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
