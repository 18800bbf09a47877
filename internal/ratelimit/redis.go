package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/aman-churiwal/media-quota/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Same fixed-window rules as MemoryLimiter, evaluated atomically in Redis.
// Returns {allowed, count, pttl}.
var fixedWindowScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local count = tonumber(redis.call('GET', KEYS[1]))
local ttl = redis.call('PTTL', KEYS[1])
if not count or ttl < 0 then
	redis.call('SET', KEYS[1], 1, 'PX', window)
	return {1, 1, window}
end

if count >= max then
	return {0, count, ttl}
end

count = redis.call('INCR', KEYS[1])
return {1, count, ttl}
`)

// Shared fixed-window limiter backed by Redis. Counts are visible to every
// instance using the same Redis database.
type RedisLimiter struct {
	redis *storage.RedisClient
	now   func() time.Time
}

func NewRedisLimiter(redis *storage.RedisClient) *RedisLimiter {
	return &RedisLimiter{redis: redis, now: time.Now}
}

func (r *RedisLimiter) Check(ctx context.Context, identity string, zone Zone) (Result, error) {
	key := fmt.Sprintf("ratelimit:fixed:%s:%s", zone.Name, identity)
	now := r.now()

	raw, err := r.redis.RunScript(ctx, fixedWindowScript, []string{key}, zone.MaxRequests, zone.Window.Milliseconds())
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}

	allowed, count, ttl, err := parseScriptReply(raw)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Allowed:   allowed,
		Limit:     zone.MaxRequests,
		ResetTime: now.Add(time.Duration(ttl) * time.Millisecond),
	}
	if allowed {
		res.Remaining = zone.MaxRequests - int(count)
	}
	return res, nil
}

func parseScriptReply(raw interface{}) (bool, int64, int64, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return false, 0, 0, fmt.Errorf("unexpected rate limit reply: %v", raw)
	}

	ints := make([]int64, 3)
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return false, 0, 0, fmt.Errorf("unexpected rate limit reply element %d: %v", i, v)
		}
		ints[i] = n
	}

	return ints[0] == 1, ints[1], ints[2], nil
}
