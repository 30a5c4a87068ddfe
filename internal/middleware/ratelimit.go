package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "rl:ip:"

// RateLimit caps requests per client IP in fixed windows using Redis. Cache
// errors fail open.
func RateLimit(cache *redis.Client, limit int, window time.Duration, logger *slog.Logger) fiber.Handler {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		key := rateLimitPrefix + c.IP()
		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit lookup failed", slog.Any("error", err))
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(ctx, key, window)
		}

		remaining := int64(limit) - cnt
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if cnt > int64(limit) {
			if ttl, err := cache.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int((ttl+time.Second-1)/time.Second)))
			}
			return fiber.NewError(http.StatusTooManyRequests, "Too many requests, please try again later")
		}
		return c.Next()
	}
}
