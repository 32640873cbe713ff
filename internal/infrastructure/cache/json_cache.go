package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores JSON-encoded values under string keys with a TTL
type JSONCache interface {
	// Get decodes the cached value into dest and reports whether it was found
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisJSONCache implements JSONCache on Redis
type RedisJSONCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisJSONCache creates a cache whose keys are namespaced by keyPrefix
func NewRedisJSONCache(client redis.UniversalClient, keyPrefix string) *RedisJSONCache {
	return &RedisJSONCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisJSONCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// a value written by an older release; treat as a miss
		return false, nil
	}
	return true, nil
}

func (c *RedisJSONCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *RedisJSONCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.keyPrefix + k
	}
	return c.client.Del(ctx, full...).Err()
}

// InMemoryJSONCache implements JSONCache in process
type InMemoryJSONCache struct {
	mu      sync.Mutex
	entries map[string]jsonEntry
}

type jsonEntry struct {
	raw       []byte
	expiresAt time.Time
}

// NewInMemoryJSONCache creates an empty in-process cache
func NewInMemoryJSONCache() *InMemoryJSONCache {
	return &InMemoryJSONCache{entries: make(map[string]jsonEntry)}
}

func (c *InMemoryJSONCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !time.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(e.raw, dest)
}

func (c *InMemoryJSONCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = jsonEntry{raw: raw, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *InMemoryJSONCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

var (
	_ JSONCache = (*RedisJSONCache)(nil)
	_ JSONCache = (*InMemoryJSONCache)(nil)
)
