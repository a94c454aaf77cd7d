package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/merchkit/countdown/internal/http/util"
	"go.uber.org/zap"
)

// SessionStoreKey is the locals key under which a verified store domain is
// published to handlers.
const SessionStoreKey = "session_store_domain"

// Session resolves an optional merchant session from the Authorization
// header. A valid token puts the verified store domain into locals; a
// missing, malformed or expired token leaves the request anonymous. The
// session is advisory here — handlers decide what anonymity means per route.
func Session(signer *util.SessionSigner, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		if auth == "" || signer == nil {
			return c.Next()
		}

		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return c.Next()
		}

		storeDomain, err := signer.Verify(token)
		if err != nil {
			logger.Debug("session token rejected", zap.Error(err))
			return c.Next()
		}

		c.Locals(SessionStoreKey, storeDomain)
		return c.Next()
	}
}

// SessionStore returns the verified store domain for the request, or "" when
// the request is anonymous.
func SessionStore(c *fiber.Ctx) string {
	if v, ok := c.Locals(SessionStoreKey).(string); ok {
		return v
	}
	return ""
}
