package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// rateLimitScript is a Lua script for sliding window rate limiting.
// Returns {allowed, remaining, resetAt}.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, 0, math.ceil(resetAt / 1000)}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('PEXPIRE', key, window + 10000)

return {1, limit - count - 1, math.ceil((now + window) / 1000)}
`)

type LimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimiter counts requests per key in a Redis sorted set.
type RateLimiter struct {
	client redis.Scripter
}

func NewRateLimiter(client redis.Scripter) *RateLimiter {
	return &RateLimiter{client: client}
}

// CheckLimit records one request against key. When Redis is unreachable the
// request is allowed and a warning is logged; sign-in must not depend on the
// limiter being up.
func (rl *RateLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) LimitResult {
	now := time.Now()
	fullKey := fmt.Sprintf("ratelimit:%s", key)

	result, err := rateLimitScript.Run(
		ctx,
		rl.client,
		[]string{fullKey},
		now.UnixMilli(),
		window.Milliseconds(),
		limit,
	).Int64Slice()

	if err != nil || len(result) != 3 {
		log.Warn().
			Err(err).
			Str("key", key).
			Msg("rate limit check failed, allowing request")
		return LimitResult{Allowed: true, Remaining: limit - 1, ResetAt: now.Add(window)}
	}

	return LimitResult{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		ResetAt:   time.Unix(result[2], 0),
	}
}
