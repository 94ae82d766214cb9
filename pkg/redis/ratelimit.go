package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit is a token bucket refilled linearly over Window.
type Limit struct {
	Name     string
	Capacity int
	Window   time.Duration
}

// Decision is the outcome of taking one token.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter keeps buckets in Redis so every API instance shares them.
type Limiter struct {
	rdb   *redis.Client
	limit Limit
	now   func() time.Time
}

func NewLimiter(rdb *redis.Client, limit Limit) *Limiter {
	return &Limiter{rdb: rdb, limit: limit, now: time.Now}
}

func (l *Limiter) Limit() Limit {
	return l.limit
}

// The script refills and takes a token atomically and returns
// {allowed, tokens, retryAfterMs}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local window = tonumber(ARGV[3])

local bucket = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(bucket[1])
local ts = tonumber(bucket[2])

if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

local delta = now - ts
if delta < 0 then delta = 0 end

tokens = math.min(capacity, tokens + (delta * capacity) / window)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, window)

local retryAfterMs = 0
if allowed == 0 then
  retryAfterMs = math.ceil((1 - tokens) * window / capacity)
end

return {allowed, math.floor(tokens), retryAfterMs}
`)

// Take consumes a token for principal. Callers decide what to do on error.
func (l *Limiter) Take(ctx context.Context, principal string) (Decision, error) {
	if l.limit.Capacity <= 0 || l.limit.Window <= 0 {
		return Decision{}, fmt.Errorf("rate limit %s: capacity and window must be positive", l.limit.Name)
	}
	key := fmt.Sprintf("rl:%s:%s", l.limit.Name, principal)
	res, err := tokenBucketScript.Run(ctx, l.rdb, []string{key},
		l.now().UnixMilli(), l.limit.Capacity, l.limit.Window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}

	arr, ok := res.([]any)
	if !ok || len(arr) != 3 {
		return Decision{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	allowed, _ := toInt(arr[0])
	remaining, _ := toInt(arr[1])
	retryMs, _ := toInt(arr[2])

	return Decision{
		Allowed:    allowed == 1,
		Remaining:  int(remaining),
		RetryAfter: time.Duration(retryMs) * time.Millisecond,
	}, nil
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}
