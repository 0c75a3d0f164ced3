package usecases

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/gisportal/internal/core/domain"
	"github.com/samirrijal/gisportal/internal/pkg/geospatial"
	"github.com/samirrijal/gisportal/internal/pkg/metrics"
	"github.com/samirrijal/gisportal/internal/pkg/telemetry"
)

// ProjectionService projects WGS 84 coordinates onto the portal's UTM zone.
type ProjectionService struct {
	zone geospatial.Zone
}

// NewProjectionService creates a ProjectionService for UTM zone 37N.
func NewProjectionService() *ProjectionService {
	return &ProjectionService{zone: geospatial.UTM37N}
}

// Zone returns the target zone.
func (s *ProjectionService) Zone() geospatial.Zone {
	return s.zone
}

// Project converts a single coordinate. Inputs are not validated.
func (s *ProjectionService) Project(lat, lon float64) domain.ProjectedPoint {
	metrics.ProjectionPoints.WithLabelValues(s.zone.Label()).Inc()
	return s.zone.Forward(lat, lon)
}

// ProjectCollection projects every Point and MultiPoint feature of fc and
// returns a new collection tagged with the zone's CRS. fc is not modified.
func (s *ProjectionService) ProjectCollection(ctx context.Context, fc *geojson.FeatureCollection) (*geojson.FeatureCollection, error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanProjectCollection)
	defer span.End()

	out := geojson.NewFeatureCollection()
	out.ExtraMembers = geojson.Properties{
		"crs": map[string]any{
			"type":       "name",
			"properties": map[string]any{"name": s.zone.CRS()},
		},
	}

	points := 0
	for i, f := range fc.Features {
		var g orb.Geometry
		switch geom := f.Geometry.(type) {
		case orb.Point:
			p, ok := s.forward(geom)
			if !ok {
				return nil, fmt.Errorf("feature %d: %w", i, domain.ErrProjectionUndefined)
			}
			g = p
			points++
		case orb.MultiPoint:
			mp := make(orb.MultiPoint, len(geom))
			for j, p := range geom {
				pp, ok := s.forward(p)
				if !ok {
					return nil, fmt.Errorf("feature %d position %d: %w", i, j, domain.ErrProjectionUndefined)
				}
				mp[j] = pp
			}
			g = mp
			points += len(geom)
		default:
			return nil, fmt.Errorf("feature %d: %w: %s", i, domain.ErrUnsupportedGeometry, geometryType(f.Geometry))
		}

		nf := geojson.NewFeature(g)
		nf.ID = f.ID
		if f.Properties != nil {
			nf.Properties = f.Properties.Clone()
		}
		out.Append(nf)
	}

	span.SetAttributes(
		attribute.Int("features", len(fc.Features)),
		attribute.Int("points", points),
	)
	metrics.ProjectionPoints.WithLabelValues(s.zone.Label()).Add(float64(points))
	return out, nil
}

// forward maps a GeoJSON [lon, lat] position to [easting, northing]. ok is
// false when the result cannot be represented in GeoJSON.
func (s *ProjectionService) forward(p orb.Point) (orb.Point, bool) {
	pp := s.zone.Forward(p.Lat(), p.Lon())
	return orb.Point{pp.Easting, pp.Northing}, pp.Finite()
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "null"
	}
	return g.GeoJSONType()
}
