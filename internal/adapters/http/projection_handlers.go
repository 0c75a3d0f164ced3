package http

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

const maxProjectionFeatures = 10000

// ProjectionResponse is a single projected coordinate.
type ProjectionResponse struct {
	Easting  float64 `json:"easting"`
	Northing float64 `json:"northing"`
	Zone     string  `json:"zone"`
	EPSG     int     `json:"epsg"`
}

// ProjectPointHandler projects the lat/lon query parameters onto UTM 37N.
func ProjectPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := finiteQuery(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lon, err := finiteQuery(c, "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		p := deps.Projections.Project(lat, lon)
		if !p.Finite() {
			return errBadRequest(c, domain.ErrProjectionUndefined.Error())
		}
		zone := deps.Projections.Zone()
		return c.JSON(ProjectionResponse{
			Easting:  p.Easting,
			Northing: p.Northing,
			Zone:     zone.Label(),
			EPSG:     zone.EPSG,
		})
	}
}

// ProjectCollectionHandler projects a GeoJSON FeatureCollection of points.
func ProjectCollectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := geojson.UnmarshalFeatureCollection(c.Body())
		if err != nil {
			return errBadRequest(c, "body must be a GeoJSON FeatureCollection")
		}
		if len(fc.Features) > maxProjectionFeatures {
			return errBadRequest(c, fmt.Sprintf("at most %d features per request", maxProjectionFeatures))
		}

		out, err := deps.Projections.ProjectCollection(c.UserContext(), fc)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedGeometry) || errors.Is(err, domain.ErrProjectionUndefined) {
				return errBadRequest(c, err.Error())
			}
			return errInternal(c, err)
		}

		data, err := out.MarshalJSON()
		if err != nil {
			return errInternal(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// finiteQuery parses a required float query parameter. JSON cannot carry
// NaN or infinities, so they are refused here rather than in the projector.
func finiteQuery(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be finite", name)
	}
	return v, nil
}
