package locking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

const retryInterval = 25 * time.Millisecond

// RedisLocker implements Locker with SET NX PX and a compare-and-delete
// release. The TTL caps how long a crashed holder blocks others.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker builds a locker on client.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

// Lock polls until the key is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return l.releaser(key, token), nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	return func() {
		// The request context may already be cancelled; release must still run.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		res, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
		if err != nil {
			l.logger.Warn("release ticket lock", zap.String("key", key), zap.Error(err))
			return
		}
		if res == 0 {
			l.logger.Warn("ticket lock expired before release", zap.String("key", key))
		}
	}
}
