package geospatial

import (
	"fmt"
	"math"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

// WGS 84 ellipsoid.
const (
	semiMajorAxis = 6378137.0
	flattening    = 1 / 298.257223563
)

// Zone is a fixed Universal Transverse Mercator zone.
type Zone struct {
	Number          int
	North           bool
	CentralMeridian float64 // degrees
	ScaleFactor     float64
	FalseEasting    float64 // meters
	FalseNorthing   float64 // meters
	EPSG            int
}

// UTM37N covers 36°E–42°E in the northern hemisphere.
var UTM37N = Zone{
	Number:          37,
	North:           true,
	CentralMeridian: 39,
	ScaleFactor:     0.9996,
	FalseEasting:    500000,
	FalseNorthing:   0,
	EPSG:            32637,
}

// Label returns the zone designation, e.g. "37N".
func (z Zone) Label() string {
	hemi := "N"
	if !z.North {
		hemi = "S"
	}
	return fmt.Sprintf("%d%s", z.Number, hemi)
}

// CRS returns the EPSG identifier in "EPSG:nnnnn" form.
func (z Zone) CRS() string {
	return fmt.Sprintf("EPSG:%d", z.EPSG)
}

// Forward projects a WGS 84 latitude/longitude in decimal degrees onto the
// zone using Snyder's Transverse Mercator series.
//
// No input validation is done: any finite input yields a finite result and
// NaN or Inf propagate to the output.
func (z Zone) Forward(lat, lon float64) domain.ProjectedPoint {
	e2 := 2*flattening - flattening*flattening
	e4 := e2 * e2
	e6 := e4 * e2
	ep2 := e2 / (1 - e2)

	phi := toRad(lat)
	dLambda := toRad(lon) - toRad(z.CentralMeridian)

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := semiMajorAxis / math.Sqrt(1-e2*sinPhi*sinPhi)
	m := semiMajorAxis * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))

	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * dLambda
	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	k0 := z.ScaleFactor
	easting := z.FalseEasting + k0*n*(a+
		(1-t+c)*a3/6+
		(5-18*t+t*t+72*c-58*ep2)*a5/120)

	northing := z.FalseNorthing + k0*(m+n*tanPhi*(a2/2+
		(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*ep2)*a6/720))

	return domain.ProjectedPoint{Easting: easting, Northing: northing}
}

// ProjectUTM37N converts a WGS 84 coordinate to UTM zone 37N easting/northing.
func ProjectUTM37N(lat, lon float64) domain.ProjectedPoint {
	return UTM37N.Forward(lat, lon)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
