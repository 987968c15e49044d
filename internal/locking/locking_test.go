package locking

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseMutualExclusion(t *testing.T, locker Locker, key string) {
	t.Helper()
	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
		counter int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			release, err := locker.Lock(ctx, key)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			counter++
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, workers, counter)
}

func TestLocalLockerMutualExclusion(t *testing.T) {
	exerciseMutualExclusion(t, NewLocalLocker(), TicketKey("TKT-1"))
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker()
	release, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()

	again, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
	assert.Empty(t, locker.entries)
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocalLocker()
	a, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer a()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	b()
}

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisLockerMutualExclusion(t *testing.T) {
	client := redisClient(t)
	key := TicketKey("test-" + time.Now().Format("150405.000000"))
	exerciseMutualExclusion(t, NewRedisLocker(client, 5*time.Second, nil), key)
}

func TestRedisLockerReleaseKeepsForeignLock(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	key := TicketKey("foreign-" + time.Now().Format("150405.000000"))
	locker := NewRedisLocker(client, 5*time.Second, nil)

	release, err := locker.Lock(ctx, key)
	require.NoError(t, err)
	require.NoError(t, client.Set(ctx, key, "someone-else", time.Minute).Err())
	release()

	val, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
	require.NoError(t, client.Del(ctx, key).Err())
}
