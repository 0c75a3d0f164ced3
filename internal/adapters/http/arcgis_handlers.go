package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/gisportal/internal/adapters/arcgis"
	"github.com/samirrijal/gisportal/internal/pkg/metrics"
)

// ArcGISProxyHandler forwards /v1/arcgis/* to the configured portal.
func ArcGISProxyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.ArcGIS == nil {
			return errServiceUnavailable(c, "arcgis proxy not configured")
		}

		token, _ := c.Locals(accessTokenKey).(string)
		target, err := deps.ArcGIS.Target(c.Params("*"), string(c.Request().URI().QueryString()), token)
		switch {
		case errors.Is(err, arcgis.ErrBadPath):
			metrics.ArcGISProxyRequests.WithLabelValues("400").Inc()
			return errBadRequest(c, "invalid arcgis path")
		case errors.Is(err, arcgis.ErrPathNotAllowed):
			metrics.ArcGISProxyRequests.WithLabelValues("403").Inc()
			return errForbidden(c, "arcgis path not allowed")
		case err != nil:
			return errInternal(c, err)
		}

		if err := deps.ArcGIS.Forward(c, target); err != nil {
			metrics.ArcGISProxyRequests.WithLabelValues("502").Inc()
			LoggerFromCtx(c.UserContext()).Warn("arcgis upstream failed", "path", c.Params("*"), "error", err)
			c.Response().Reset()
			reapplyAuthCookies(c, deps.Cookies)
			return errBadGateway(c, "arcgis portal unreachable")
		}

		reapplyAuthCookies(c, deps.Cookies)
		metrics.ArcGISProxyRequests.WithLabelValues(strconv.Itoa(c.Response().StatusCode())).Inc()
		return nil
	}
}
