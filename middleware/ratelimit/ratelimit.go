package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-auth-starter/middleware/clientip"
)

const defaultRedisPrefix = "auth:rl:"

var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local current = redis.call("INCR", key)
if current == 1 then
  redis.call("PEXPIRE", key, window_ms)
end

local ttl = redis.call("PTTL", key)
if ttl < 0 then
  ttl = window_ms
end

if current > limit then
  return {0, ttl}
end
return {1, ttl}
`)

// RedisLimiter is a fixed window counter per key
type RedisLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, limit int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Allow counts a hit for key and reports whether it is within the limit
// together with the time left in the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	windowMS := int64(l.window / time.Millisecond)
	if windowMS <= 0 {
		return false, 0, fmt.Errorf("invalid rate limit window")
	}

	res, err := rateLimitScript.Run(ctx, l.client, []string{l.prefix + key}, l.limit, windowMS).Result()
	if err != nil {
		return false, 0, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, 0, fmt.Errorf("unexpected redis response")
	}

	allowedInt, ok := vals[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis response")
	}

	ttlMS, ok := vals[1].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis response")
	}

	retryAfter := time.Duration(ttlMS) * time.Millisecond
	if retryAfter < 0 {
		retryAfter = 0
	}

	return allowedInt == 1, retryAfter, nil
}

// Logger receives limiter backend failures
type Logger interface {
	Warn(format string, args ...any)
}

// Config wires the limiter into the router middleware
type Config struct {
	Limiter *RedisLimiter
	Logger  Logger
	// KeyFunc picks the bucket of a request, the client address by default
	KeyFunc func(router.Context) string
}

// New limits requests per client address. When redis is unavailable
// the request is let through.
func New(cfg Config) router.MiddlewareFunc {
	if cfg.Limiter == nil {
		panic("ratelimit: Limiter is required")
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientip.FromContext
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			allowed, retryAfter, err := cfg.Limiter.Allow(ctx.Context(), cfg.KeyFunc(ctx))
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Warn("rate limiter unavailable: %v", err)
				}
				return hf(ctx)
			}

			if !allowed {
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				ctx.SetHeader(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
				return ctx.JSON(router.StatusTooManyRequests, map[string]any{
					"success": false,
					"message": "Too many requests, try again later",
				})
			}

			return hf(ctx)
		}
	}
}
