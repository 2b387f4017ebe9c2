package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const transferRatePrefix = "rl:transfer:"

// TransferRateLimit caps transfer attempts per authenticated user per minute
// using a Redis counter. It is a no-op without Redis or with maxPerMin <= 0 and
// fails open on cache errors.
func TransferRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil || maxPerMin <= 0 {
			return c.Next()
		}
		subject, _ := c.Locals(UserIDKey).(string)
		if subject == "" {
			subject = c.IP()
		}
		key := transferRatePrefix + subject

		ctx := c.UserContext()
		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("transfer rate limit lookup failed", slog.String("subject", subject), slog.Any("error", err))
			return c.Next()
		}
		if cnt == 1 {
			// A counter without a TTL would lock the user out for good.
			if ok, err := cache.Expire(ctx, key, time.Minute).Result(); err != nil || !ok {
				logger.Warn("transfer rate limit window not armed", slog.String("subject", subject), slog.Any("error", err))
				cache.Del(ctx, key)
			}
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many transfers, try again later")
		}
		return c.Next()
	}
}
