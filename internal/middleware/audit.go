package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Audit emits one structured log line per request with the caller, the
// resulting status and latency. Server errors log at error level and client
// errors at warn.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if err != nil {
			status = fiber.StatusInternalServerError
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		}
		if requestID, _ := c.Locals(requestIDHeader).(string); requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if uid, _ := c.Locals(UserIDKey).(string); uid != "" {
			attrs = append(attrs, slog.String("user_id", uid))
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request completed", attrs...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request completed", attrs...)
		default:
			logger.Info("request completed", attrs...)
		}
		return err
	}
}
