package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ircbridge:authfail:"

// takeScript counts an attempt and returns {count, pttl}. The expiry is set
// in the same script, so a counter can never be left without one.
var takeScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// Redis counts attempts in a fixed window shared by every bridge replica.
// The window starts at the first attempt for a key.
type Redis struct {
	client redis.UniversalClient
	cfg    Config
}

// NewRedis returns a limiter backed by client.
func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	return &Redis{client: client, cfg: cfg.withDefaults()}
}

func (r *Redis) Take(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := takeScript.Run(ctx, r.client, []string{redisKeyPrefix + key}, r.cfg.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("throttle: take: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("throttle: take: unexpected reply %v", res)
	}

	if res[0] <= int64(r.cfg.Threshold) {
		return true, 0, nil
	}
	return false, max(time.Duration(res[1])*time.Millisecond, time.Second), nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("throttle: del: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable, for readiness checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
