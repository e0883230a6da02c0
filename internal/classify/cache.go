package classify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/workflow"
)

const cacheKeyPrefix = "triage:classify:"

// Cache is the key/value surface the cached classifier needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	client redis.Cmdable
}

// NewRedisCache wraps client.
func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached value; a missing key is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value under key with ttl.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachedClassifier memoizes successful classifications by ticket text.
// Fallback results are never cached so a recovered service is used again.
type CachedClassifier struct {
	next   workflow.Classifier
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedClassifier wraps next with cache.
func NewCachedClassifier(next workflow.Classifier, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClassifier{next: next, cache: cache, ttl: ttl, logger: logger}
}

type cachedClassification struct {
	Best   domain.Category        `json:"best"`
	Scores []domain.CategoryScore `json:"scores"`
}

// Classify implements workflow.Classifier. Cache errors are logged and bypassed.
func (c *CachedClassifier) Classify(ctx context.Context, ticket domain.Ticket) workflow.Classification {
	key := CacheKey(ticket)

	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("classification cache read failed", zap.Error(err))
	} else if ok {
		var hit cachedClassification
		if err := json.Unmarshal([]byte(raw), &hit); err == nil && hit.Best != "" {
			return workflow.Classification{Best: hit.Best, Scores: hit.Scores}
		}
		c.logger.Warn("discarding malformed cache entry", zap.String("key", key))
	}

	result := c.next.Classify(ctx, ticket)
	if result.Fallback {
		return result
	}
	payload, err := json.Marshal(cachedClassification{Best: result.Best, Scores: result.Scores})
	if err == nil {
		err = c.cache.Set(ctx, key, string(payload), c.ttl)
	}
	if err != nil {
		c.logger.Warn("classification cache write failed", zap.Error(err))
	}
	return result
}

// CacheKey derives a stable key from the ticket text.
func CacheKey(ticket domain.Ticket) string {
	sum := blake2b.Sum256([]byte(ticket.Subject + "\x00" + ticket.Description))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
