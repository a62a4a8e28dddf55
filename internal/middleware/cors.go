package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// CORSConfig configures the origin allow-list.
type CORSConfig struct {
	// AllowOrigins are echoed back verbatim when they match the request Origin.
	AllowOrigins []string
	// DefaultOrigin is returned for any other origin, so browsers on an
	// unknown site are refused while the response stays cacheable.
	DefaultOrigin string
}

const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type, x-client-id"
	corsAllowMethods = "GET, POST, OPTIONS"
)

// CORS sets CORS headers on every response and answers OPTIONS preflight
// requests with 204. The Origin header is echoed only when it is allow-listed.
func CORS(cfg CORSConfig) fiber.Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		allow := cfg.DefaultOrigin
		if _, ok := allowed[origin]; ok && origin != "" {
			allow = origin
		}

		c.Set(fiber.HeaderAccessControlAllowOrigin, allow)
		c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
		c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
		c.Set(fiber.HeaderVary, fiber.HeaderOrigin)

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
