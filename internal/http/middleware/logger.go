package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Logger emits one zap entry per request. The storefront feed is polled by
// every product page view, so successful reads on it log at debug to keep
// the info stream readable; management writes and anything that failed log
// at info or above.
func Logger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if rid, ok := c.Locals(RequestIDKey).(string); ok {
			fields = append(fields, zap.String("request_id", rid))
		}

		switch {
		case err != nil:
			logger.Error("request error", append(fields, zap.Error(err))...)
		case status >= 500:
			logger.Error("request failed", fields...)
		case isStorefrontRead(c) && status < 400:
			logger.Debug("request", fields...)
		default:
			logger.Info("request", fields...)
		}

		return err
	}
}

func isStorefrontRead(c *fiber.Ctx) bool {
	if c.Method() != fiber.MethodGet {
		return false
	}
	path := c.Path()
	return strings.HasPrefix(path, "/widget/") ||
		(strings.HasPrefix(path, "/api/timer/") && !strings.HasSuffix(path, "/all"))
}
