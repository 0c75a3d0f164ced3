package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers and proxied upstreams that set their own value win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case strings.HasPrefix(path, "/v1/projections/") || path == "/v1/utm":
			ttl = "public, max-age=86400" // pure function of the query

		case strings.HasPrefix(path, "/v1/arcgis/"):
			ttl = "private, no-cache"

		case strings.HasPrefix(path, "/v1/session"), strings.HasPrefix(path, "/v1/menu"),
			strings.HasPrefix(path, "/v1/stats"):
			ttl = "private, no-store"

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
