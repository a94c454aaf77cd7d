package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id to and from clients.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the locals key the other middleware read the id from.
	RequestIDKey = "request_id"
)

// RequestID tags every request with an id, honoring one supplied by the
// caller. Widget requests arrive from shopper browsers with no id of their
// own, so most ids are minted here.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(RequestIDHeader)
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set(RequestIDHeader, rid)
		c.Locals(RequestIDKey, rid)
		return c.Next()
	}
}
