package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	idempotencyTimeout   = 2 * time.Second
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// Idempotency enforces idempotent semantics across unsafe HTTP methods by
// persisting responses in Redis keyed by the provided Idempotency-Key header,
// scoped to the authenticated user when one is known.
//
// The key is reserved with SETNX before the handler runs, so of two concurrent
// requests carrying the same key only one reaches the handler. The other gets
// 409 while the first is in flight, or the stored response once it finished.
// Handler errors release the key so the client can retry.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch strings.ToUpper(c.Method()) {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		cacheKey := idempotencyPrefix + key
		if uid, _ := c.Locals(UserIDKey).(string); uid != "" {
			cacheKey = idempotencyPrefix + uid + ":" + key
		}
		log := logger.With(slog.String("key", key))

		ctx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
		defer cancel()

		cached, err := cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			return replay(c, cached, log)
		case !errors.Is(err, redis.Nil):
			log.Error("idempotency lookup failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
		if err != nil {
			log.Error("idempotency reservation failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
		}
		if !reserved {
			// Another request took the key between our GET and SETNX.
			cached, err := cache.Get(ctx, cacheKey).Result()
			if err != nil {
				return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
			}
			return replay(c, cached, log)
		}

		if err := c.Next(); err != nil {
			release(cache, cacheKey)
			return err
		}

		if err := persist(c, cache, cacheKey, ttl); err != nil {
			log.Error("failed to persist idempotent response", slog.Any("error", err))
			release(cache, cacheKey)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}
		return nil
	}
}

// replay answers from a stored entry, or with 409 while the original is still
// being processed.
func replay(c *fiber.Ctx, cached string, log *slog.Logger) error {
	if cached == inProgressMarker {
		return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		log.Warn("failed to decode stored idempotent response", slog.Any("error", err))
		return fiber.NewError(fiber.StatusConflict, "duplicate request")
	}

	for header, value := range stored.Headers {
		if strings.EqualFold(header, fiber.HeaderContentLength) {
			continue
		}
		c.Set(header, value)
	}
	return c.Status(stored.Status).SendString(stored.Body)
}

func persist(c *fiber.Ctx, cache *redis.Client, cacheKey string, ttl time.Duration) error {
	stored := storedResponse{
		Status:  c.Response().StatusCode(),
		Body:    string(c.Response().Body()),
		Headers: map[string]string{},
	}
	c.Response().Header.VisitAll(func(k, v []byte) {
		stored.Headers[string(k)] = string(v)
	})

	payload, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
	defer cancel()
	return cache.Set(ctx, cacheKey, payload, ttl).Err()
}

// release drops the reservation, best effort.
func release(cache *redis.Client, cacheKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
	defer cancel()
	cache.Del(ctx, cacheKey)
}
