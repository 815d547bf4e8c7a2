package throttle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	require.Equal(t, "alice_42|10.0.0.1", Key("Alice_42", "10.0.0.1"))
}

func TestMemory_BlocksAfterThreshold(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	m := NewMemory(Config{Threshold: 3, Window: 3 * time.Minute})
	m.now = func() time.Time { return now }

	key := Key("bob_abc123", "10.0.0.1")
	for range 3 {
		ok, _, err := m.Take(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, retry, err := m.Take(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, time.Minute, retry)

	other, _, err := m.Take(ctx, Key("bob_abc123", "10.0.0.2"))
	require.NoError(t, err)
	require.True(t, other, "other sources are not affected")

	now = now.Add(time.Minute)
	ok, _, err = m.Take(ctx, key)
	require.NoError(t, err)
	require.True(t, ok, "one token refills per window/threshold")
}

func TestMemory_ResetClearsKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Config{Threshold: 1, Window: time.Hour})

	ok, _, _ := m.Take(ctx, "k")
	require.True(t, ok)
	ok, _, _ = m.Take(ctx, "k")
	require.False(t, ok)

	require.NoError(t, m.Reset(ctx, "k"))
	ok, _, _ = m.Take(ctx, "k")
	require.True(t, ok)
}

// takeConcurrently fires n simultaneous attempts at one key and counts how
// many were let through.
func takeConcurrently(t *testing.T, l Limiter, n int) int {
	t.Helper()

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
		start   = make(chan struct{})
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, _, err := l.Take(context.Background(), "k")
			if err == nil && ok {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	return int(allowed.Load())
}

func TestMemory_ConcurrentAttemptsCannotOvershoot(t *testing.T) {
	m := NewMemory(Config{Threshold: 3, Window: time.Hour})
	require.Equal(t, 3, takeConcurrently(t, m, 50))
}

func newTestRedis(t *testing.T, cfg Config) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, cfg), mr
}

func TestRedis_BlocksAfterThreshold(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, Config{Threshold: 2, Window: 10 * time.Minute})
	require.NoError(t, r.Ping(ctx))

	key := Key("bob_abc123", "10.0.0.1")
	for range 2 {
		ok, _, err := r.Take(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 10*time.Minute, mr.TTL(redisKeyPrefix+key))

	ok, retry, err := r.Take(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 10*time.Minute, retry)

	mr.FastForward(10 * time.Minute)
	ok, _, err = r.Take(ctx, key)
	require.NoError(t, err)
	require.True(t, ok, "window expired")
}

func TestRedis_CounterWithoutExpiryHeals(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, Config{Threshold: 2, Window: 5 * time.Minute})

	// A counter left behind with no TTL.
	require.NoError(t, mr.Set(redisKeyPrefix+"k", "7"))

	ok, retry, err := r.Take(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 5*time.Minute, retry)
	require.Equal(t, 5*time.Minute, mr.TTL(redisKeyPrefix+"k"))

	mr.FastForward(5 * time.Minute)
	ok, _, err = r.Take(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedis_ConcurrentAttemptsCannotOvershoot(t *testing.T) {
	r, _ := newTestRedis(t, Config{Threshold: 3, Window: time.Hour})
	require.Equal(t, 3, takeConcurrently(t, r, 30))
}

func TestRedis_Reset(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, Config{Threshold: 1, Window: time.Minute})

	_, _, err := r.Take(ctx, "k")
	require.NoError(t, err)
	require.True(t, mr.Exists(redisKeyPrefix+"k"))

	require.NoError(t, r.Reset(ctx, "k"))
	require.False(t, mr.Exists(redisKeyPrefix+"k"))
}

func TestRedis_Unavailable(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, Config{})
	mr.Close()

	_, _, err := r.Take(ctx, "k")
	require.Error(t, err)
}
