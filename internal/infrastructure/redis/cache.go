// Package redis backs the provider read cache with Redis so several dashboard
// instances share one view of the provider.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultNamespace = "dashboard:"
	scanBatch        = 200
)

type Options struct {
	Addr     string
	Password string
	DB       int
	// Namespace prefixes every key; defaults to "dashboard:".
	Namespace string
}

type Cache struct {
	client *goredis.Client
	ns     string
}

func NewClient(opts Options) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:            opts.Addr,
		Password:        opts.Password,
		DB:              opts.DB,
		PoolSize:        20,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
		DialTimeout:     500 * time.Millisecond,
		ReadTimeout:     300 * time.Millisecond,
		WriteTimeout:    300 * time.Millisecond,
		MaxRetries:      1,
	})
}

func NewCache(client *goredis.Client, namespace string) *Cache {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Cache{client: client, ns: namespace}
}

func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, c.ns+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return b, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, c.ns+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes every namespaced key starting with prefix.
func (c *Cache) Invalidate(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, c.ns+prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis: invalidate %q: %w", prefix, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis: scan %q: %w", prefix, err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis: invalidate %q: %w", prefix, err)
		}
	}
	return nil
}

func (c *Cache) Close() error { return c.client.Close() }
