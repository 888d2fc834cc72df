package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"example.com/oilchain/config"
)

// ErrMiss is returned by Get when the key holds no value
var ErrMiss = errors.New("key not found in cache")

// RedisCache stores small user preferences in Redis. When Redis is disabled
// values are kept in process memory instead.
type RedisCache struct {
	client  *redis.Client
	enabled bool

	mu    sync.Mutex
	local map[string]localEntry
}

type localEntry struct {
	data    []byte
	expires time.Time
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return NewMemoryCache(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  client,
		enabled: true,
	}, nil
}

// NewMemoryCache creates a cache that never leaves the process
func NewMemoryCache() *RedisCache {
	return &RedisCache{local: make(map[string]localEntry)}
}

// Enabled reports whether values are stored in Redis
func (c *RedisCache) Enabled() bool {
	return c.enabled
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string, value interface{}) error {
	var data []byte
	if c.enabled {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrMiss
		}
		if err != nil {
			return errors.Wrap(err, "failed to get value from Redis")
		}
	} else {
		c.mu.Lock()
		e, ok := c.local[key]
		if ok && !e.expires.IsZero() && time.Now().After(e.expires) {
			delete(c.local, key)
			ok = false
		}
		c.mu.Unlock()
		if !ok {
			return ErrMiss
		}
		data = e.data
	}

	if err := json.Unmarshal(data, value); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached value")
	}
	return nil
}

// Set stores a value in cache with optional expiration
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for caching")
	}

	if c.enabled {
		if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
			return errors.Wrap(err, "failed to set value in Redis")
		}
		return nil
	}

	e := localEntry{data: data}
	if expiration > 0 {
		e.expires = time.Now().Add(expiration)
	}
	c.mu.Lock()
	c.local[key] = e
	c.mu.Unlock()
	return nil
}

// Delete removes a key
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if c.enabled {
		return errors.Wrap(c.client.Del(ctx, key).Err(), "failed to delete value in Redis")
	}
	c.mu.Lock()
	delete(c.local, key)
	c.mu.Unlock()
	return nil
}

// ViewModeKey is the key under which a client's view-mode of an entity is kept
func ViewModeKey(clientID, entity string) string {
	return fmt.Sprintf("viewmode:%s:%s", clientID, entity)
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}
	return c.client.Close()
}
