package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// CORS opens the API to any origin. The widget runs inside shopper-facing
// storefront pages whose domains are not known ahead of time, so the public
// feed must answer cross-origin; the management routes rely on the session
// token rather than the origin for protection.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "Origin, Content-Type, Accept, Authorization")
		c.Set(fiber.HeaderAccessControlMaxAge, "86400")

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}

		return c.Next()
	}
}
