package advisory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheConfig contains the advisory cache settings.
type CacheConfig struct {
	RedisURL       string
	KeyPrefix      string
	DefaultTTL     time.Duration
	MaxConnections int
	MinIdleConns   int
}

// Cache is a Redis-backed cache for advisory responses. Identical redacted
// prefixes under the same regime produce identical assessments, so repeated
// batch runs skip the LLM round trip. All lookups soft-fail: a cache error
// is never surfaced to the pipeline.
type Cache struct {
	client *redis.Client
	config *CacheConfig
	logger *zap.Logger
}

// NewCache creates an advisory response cache.
func NewCache(config *CacheConfig, logger *zap.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.MaxConnections
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	cache := &Cache{
		client: client,
		config: config,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Advisory cache initialized",
		zap.Duration("default_ttl", config.DefaultTTL))

	return cache, nil
}

// Get returns a cached assessment, or "" on miss or error.
func (c *Cache) Get(ctx context.Context, regime, textPrefix string) string {
	key := c.key(regime, textPrefix)

	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ""
	} else if err != nil {
		c.logger.Debug("Advisory cache lookup failed", zap.Error(err))
		return ""
	}

	c.logger.Debug("Advisory cache hit", zap.String("key", key))
	return value
}

// Set stores an assessment with the default TTL. Failures are logged only.
func (c *Cache) Set(ctx context.Context, regime, textPrefix, assessment string) {
	key := c.key(regime, textPrefix)

	if err := c.client.Set(ctx, key, assessment, c.config.DefaultTTL).Err(); err != nil {
		c.logger.Debug("Failed to cache advisory response", zap.Error(err))
	}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// key builds a cache key from a hash of regime and text prefix, so raw
// document content never reaches Redis.
func (c *Cache) key(regime, textPrefix string) string {
	hasher := sha256.New()
	hasher.Write([]byte(regime))
	hasher.Write([]byte{0})
	hasher.Write([]byte(textPrefix))
	hash := hex.EncodeToString(hasher.Sum(nil))
	return fmt.Sprintf("%s:adv:%s", c.config.KeyPrefix, hash[:16])
}
