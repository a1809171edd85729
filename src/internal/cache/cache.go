package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// Cache interface defines caching operations
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Increment(ctx context.Context, key string) (int64, error)
	Close() error
}

// CacheManager fronts a Redis cache with an in-memory fallback.
// All values are advisory; the database stays authoritative.
type CacheManager struct {
	primary   Cache
	fallback  Cache
	enabled   bool
	keyPrefix string
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cfg *viper.Viper) *CacheManager {
	manager := &CacheManager{
		enabled:   cfg.GetBool("cache.enabled"),
		keyPrefix: cfg.GetString("cache.key_prefix"),
	}

	if manager.keyPrefix == "" {
		manager.keyPrefix = "casnotes:"
	}

	// Try to connect to Redis
	if manager.enabled && cfg.GetBool("redis.enabled") {
		redisCache, err := NewRedisCache(cfg)
		if err == nil {
			manager.primary = redisCache
		}
	}

	// Always have memory cache as fallback
	manager.fallback = NewMemoryCache()

	return manager
}

func (cm *CacheManager) key(key string) string {
	return cm.keyPrefix + key
}

func (cm *CacheManager) Get(ctx context.Context, key string) (string, error) {
	if !cm.enabled {
		return "", fmt.Errorf("cache not enabled")
	}

	fullKey := cm.key(key)

	if cm.primary != nil {
		value, err := cm.primary.Get(ctx, fullKey)
		if err == nil {
			return value, nil
		}
	}

	return cm.fallback.Get(ctx, fullKey)
}

func (cm *CacheManager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !cm.enabled {
		return nil
	}

	fullKey := cm.key(key)

	if cm.primary != nil {
		if err := cm.primary.Set(ctx, fullKey, value, ttl); err == nil {
			return nil
		}
	}

	return cm.fallback.Set(ctx, fullKey, value, ttl)
}

func (cm *CacheManager) Delete(ctx context.Context, key string) error {
	if !cm.enabled {
		return nil
	}

	fullKey := cm.key(key)

	if cm.primary != nil {
		cm.primary.Delete(ctx, fullKey)
	}
	cm.fallback.Delete(ctx, fullKey)

	return nil
}

func (cm *CacheManager) GetJSON(ctx context.Context, key string, dest interface{}) error {
	value, err := cm.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(value), dest)
}

func (cm *CacheManager) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !cm.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return cm.Set(ctx, key, string(data), ttl)
}

func (cm *CacheManager) Close() error {
	if cm.primary != nil {
		cm.primary.Close()
	}
	if cm.fallback != nil {
		cm.fallback.Close()
	}
	return nil
}

// RedisCache implements Cache using Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(cfg *viper.Viper) (*RedisCache, error) {
	addr := fmt.Sprintf("%s:%d", cfg.GetString("redis.host"), cfg.GetInt("redis.port"))
	if addr == ":0" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.GetString("redis.password"),
		DB:           cfg.GetInt("redis.db"),
		DialTimeout:  time.Second * 5,
		ReadTimeout:  time.Second * 3,
		WriteTimeout: time.Second * 3,
		PoolSize:     10,
		PoolTimeout:  time.Second * 4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (rc *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return rc.client.Get(ctx, key).Result()
}

func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	return rc.client.Del(ctx, key).Err()
}

func (rc *RedisCache) Increment(ctx context.Context, key string) (int64, error) {
	return rc.client.Incr(ctx, key).Result()
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// MemoryCache implements Cache using in-memory storage (fallback)
type MemoryCache struct {
	data map[string]cacheItem
	mu   sync.RWMutex
}

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache instance
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]cacheItem),
	}
}

func (mc *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	mc.mu.RLock()
	item, ok := mc.data[key]
	mc.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		mc.mu.Lock()
		delete(mc.data, key)
		mc.mu.Unlock()
		return "", fmt.Errorf("key expired: %s", key)
	}
	return item.value, nil
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	mc.mu.Lock()
	mc.data[key] = cacheItem{
		value:     fmt.Sprintf("%v", value),
		expiresAt: expiresAt,
	}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	delete(mc.data, key)
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Increment(ctx context.Context, key string) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var n int64
	if item, ok := mc.data[key]; ok {
		if parsed, err := strconv.ParseInt(item.value, 10, 64); err == nil {
			n = parsed
		}
	}
	n++
	mc.data[key] = cacheItem{value: strconv.FormatInt(n, 10)}
	return n, nil
}

func (mc *MemoryCache) Close() error {
	return nil
}
