package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache defines the caching operations used by the price oracle. Values are
// advisory price hints, not correctness-critical state, so last-write-wins
// under concurrent refresh is acceptable.
type Cache interface {
	GetPrice(ctx context.Context, key string) (string, error)
	SetPrice(ctx context.Context, key string, price string, ttl time.Duration) error
	GetRate(ctx context.Context, key string) (string, error)
	SetRate(ctx context.Context, key string, rate string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PriceCacheKey generates a cache key for a token's USD price.
func PriceCacheKey(symbol string) string {
	return fmt.Sprintf("price:%s", symbol)
}

// RateCacheKey generates a cache key for a derived exchange rate.
func RateCacheKey(tokenIn, tokenOut string) string {
	return fmt.Sprintf("rate:%s:%s", tokenIn, tokenOut)
}

// RedisCache implements Cache using Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // Cache miss
		}
		return "", err
	}
	return val, nil
}

// GetPrice retrieves a cached price.
func (c *RedisCache) GetPrice(ctx context.Context, key string) (string, error) {
	return c.get(ctx, key)
}

// SetPrice caches a price with TTL.
func (c *RedisCache) SetPrice(ctx context.Context, key string, price string, ttl time.Duration) error {
	return c.client.Set(ctx, key, price, ttl).Err()
}

// GetRate retrieves a cached exchange rate.
func (c *RedisCache) GetRate(ctx context.Context, key string) (string, error) {
	return c.get(ctx, key)
}

// SetRate caches an exchange rate with TTL.
func (c *RedisCache) SetRate(ctx context.Context, key string, rate string, ttl time.Duration) error {
	return c.client.Set(ctx, key, rate, ttl).Err()
}

// Delete removes a key from cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// InMemoryCache implements Cache using in-memory storage. It is the
// fallback when no Redis address is configured.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cachedValue
}

type cachedValue struct {
	value     string
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[string]*cachedValue),
	}
}

func (c *InMemoryCache) get(key string) (string, error) {
	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if time.Now().After(cached.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", nil
	}
	return cached.value, nil
}

func (c *InMemoryCache) set(key, value string, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = &cachedValue{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) GetPrice(ctx context.Context, key string) (string, error) {
	return c.get(key)
}

func (c *InMemoryCache) SetPrice(ctx context.Context, key string, price string, ttl time.Duration) error {
	return c.set(key, price, ttl)
}

func (c *InMemoryCache) GetRate(ctx context.Context, key string) (string, error) {
	return c.get(key)
}

func (c *InMemoryCache) SetRate(ctx context.Context, key string, rate string, ttl time.Duration) error {
	return c.set(key, rate, ttl)
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
