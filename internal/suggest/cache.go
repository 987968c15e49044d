package suggest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "helpdesk:suggest:"

// Cached memoizes suggestions in Redis keyed by the normalized query. Cache
// errors are logged and bypassed.
type Cached struct {
	inner  Suggester
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps inner with a Redis cache.
func NewCached(inner Suggester, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.Join(strings.Fields(query), " "))))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// SuggestResolutionSteps serves from cache when possible.
func (c *Cached) SuggestResolutionSteps(ctx context.Context, query string) ([]string, error) {
	key := cacheKey(query)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var steps []string
		if jsonErr := json.Unmarshal(raw, &steps); jsonErr == nil {
			return steps, nil
		}
		c.logger.Warn("discarding malformed suggestion cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("suggestion cache read failed", zap.Error(err))
	}

	steps, err := c.inner.SuggestResolutionSteps(ctx, query)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(steps); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("suggestion cache write failed", zap.Error(err))
		}
	}
	return steps, nil
}
