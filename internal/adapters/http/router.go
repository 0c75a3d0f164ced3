package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/gisportal/internal/core/domain"
	"github.com/samirrijal/gisportal/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, proxy, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(TracingMiddleware())
	app.Use(RequestLoggerMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP; map tiles through the proxy are exempt.
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/v1/arcgis/")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(legacyRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler())
	app.Get("/v1/ready", ReadyHandler(deps))

	auth := RequireAuth(deps)
	admin := RequireRole(domain.RoleOrgAdmin)

	v1 := app.Group("/v1")

	// Projections
	v1.Get("/projections/utm37n", ProjectPointHandler(deps))
	v1.Post("/projections/utm37n", timeout.NewWithContext(ProjectCollectionHandler(deps), requestTimeout))
	v1.Get("/utm", ProjectPointHandler(deps))

	// Session and menu
	v1.Get("/session", auth, SessionHandler())
	v1.Post("/session/logout", LogoutHandler(deps))
	v1.Get("/menu", auth, MenuHandler(deps))

	// Usage statistics
	v1.Post("/stats", auth, timeout.NewWithContext(RecordUsageHandler(deps), requestTimeout))
	v1.Get("/stats", auth, admin, timeout.NewWithContext(ListUsageHandler(deps), requestTimeout))
	v1.Get("/stats/daily", auth, admin, timeout.NewWithContext(DailyUsageHandler(deps), requestTimeout))
	v1.Get("/stats/export.xlsx", auth, admin, timeout.NewWithContext(ExportUsageHandler(deps), 60*time.Second))
	v1.Post("/stats/rollup", auth, admin, timeout.NewWithContext(ScheduleRollupHandler(deps), requestTimeout))

	// ArcGIS portal proxy
	v1.All("/arcgis/*", OptionalAuth(deps), ArcGISProxyHandler(deps))

	// GraphQL
	app.Post("/graphql", OptionalAuth(deps), GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/usage", auth, admin, func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			return errServiceUnavailable(c, "live usage feed not configured")
		}
		return c.Next()
	}, websocket.New(UsageFeedHandler(deps.NATS)))
}
