// Package cache keeps JSON snapshots of read-mostly listings in Redis.
// A nil *Cache is valid and simply calls through to the loader.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect creates a Redis client and checks it with a ping.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}

	return client, nil
}

type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New returns a cache storing keys under prefix for ttl.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(name string) string {
	return c.prefix + ":" + name
}

// FetchJSON decodes the cached value of name into dest. On a miss the
// loader result is stored and decoded into dest.
func (c *Cache) FetchJSON(ctx context.Context, name string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return load(ctx, dest, loader, nil)
	}

	payload, err := c.client.Get(ctx, c.key(name)).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache: get %s: %w", name, err)
	}

	return load(ctx, dest, loader, func(raw []byte) error {
		return c.client.Set(ctx, c.key(name), raw, c.ttl).Err()
	})
}

func load(ctx context.Context, dest any, loader func(context.Context) (any, error), store func([]byte) error) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if store != nil {
		if err := store(raw); err != nil {
			return fmt.Errorf("cache: set: %w", err)
		}
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate drops the named entries.
func (c *Cache) Invalidate(ctx context.Context, names ...string) error {
	if c == nil || c.client == nil || len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = c.key(n)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: del: %w", err)
	}
	return nil
}
