package geospatial

import (
	"math"
	"sync"
	"testing"
)

func TestProjectUTM37N_CentralMeridian(t *testing.T) {
	for _, lat := range []float64{0, 12.5, 24.7136, 45, 60, 84} {
		p := ProjectUTM37N(lat, 39)
		if math.Abs(p.Easting-500000) > 1e-6 {
			t.Errorf("lat %v: expected easting 500000, got %.9f", lat, p.Easting)
		}
	}
}

func TestProjectUTM37N_Equator(t *testing.T) {
	p := ProjectUTM37N(0, 39)
	if math.Abs(p.Northing) > 1e-6 {
		t.Errorf("expected northing 0, got %.9f", p.Northing)
	}
	if math.Abs(p.Easting-500000) > 1e-6 {
		t.Errorf("expected easting 500000, got %.9f", p.Easting)
	}
}

func TestProjectUTM37N_Symmetry(t *testing.T) {
	for _, lat := range []float64{5, 21.4225, 40} {
		for _, d := range []float64{0.25, 1, 2.5, 2.99} {
			east := ProjectUTM37N(lat, 39+d)
			west := ProjectUTM37N(lat, 39-d)

			de := east.Easting - 500000
			dw := 500000 - west.Easting
			if math.Abs(de-dw) > 1e-3 {
				t.Errorf("lat %v d %v: offsets %.6f and %.6f differ", lat, d, de, dw)
			}
			if math.Abs(east.Northing-west.Northing) > 1e-3 {
				t.Errorf("lat %v d %v: northings %.6f and %.6f differ", lat, d, east.Northing, west.Northing)
			}
		}
	}
}

func TestProjectUTM37N_EastingMonotonic(t *testing.T) {
	for _, lat := range []float64{0, 15, 30, 50} {
		prev := math.Inf(-1)
		for lon := 36.0; lon <= 42.0; lon += 0.1 {
			e := ProjectUTM37N(lat, lon).Easting
			if e <= prev {
				t.Fatalf("lat %v: easting not increasing at lon %.1f (%.6f <= %.6f)", lat, lon, e, prev)
			}
			prev = e
		}
	}
}

// Regression baseline computed with the series above; Riyadh lies outside
// the zone so this pins the arithmetic, not a surveyed position.
func TestProjectUTM37N_Riyadh(t *testing.T) {
	p := ProjectUTM37N(24.7136, 46.6753)

	const (
		wantEasting  = 1277820.5436996724
		wantNorthing = 2755104.8392598443
	)
	if math.Abs(p.Easting-wantEasting) > 1e-6 {
		t.Errorf("easting = %.10f, want %.10f", p.Easting, wantEasting)
	}
	if math.Abs(p.Northing-wantNorthing) > 1e-6 {
		t.Errorf("northing = %.10f, want %.10f", p.Northing, wantNorthing)
	}
}

func TestProjectUTM37N_Mecca(t *testing.T) {
	p := ProjectUTM37N(21.4225, 39.8262)
	if math.Abs(p.Easting-585624.2166) > 1e-3 || math.Abs(p.Northing-2369133.5290) > 1e-3 {
		t.Errorf("got (%.4f, %.4f)", p.Easting, p.Northing)
	}
}

func TestProjectUTM37N_NaNPropagates(t *testing.T) {
	p := ProjectUTM37N(math.NaN(), 39)
	if !math.IsNaN(p.Easting) {
		t.Errorf("expected NaN easting, got %v", p.Easting)
	}
	if !math.IsNaN(p.Northing) {
		t.Errorf("expected NaN northing, got %v", p.Northing)
	}

	p = ProjectUTM37N(10, math.NaN())
	if !math.IsNaN(p.Easting) || !math.IsNaN(p.Northing) {
		t.Errorf("expected NaN output for NaN longitude, got %+v", p)
	}
}

func TestProjectUTM37N_OutOfRangeIsFinite(t *testing.T) {
	p := ProjectUTM37N(-45, 170)
	if math.IsNaN(p.Easting) || math.IsInf(p.Easting, 0) || math.IsNaN(p.Northing) || math.IsInf(p.Northing, 0) {
		t.Errorf("expected finite output, got %+v", p)
	}
}

func TestProjectUTM37N_Concurrent(t *testing.T) {
	want := ProjectUTM37N(24.7136, 46.6753)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := ProjectUTM37N(24.7136, 46.6753); got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		}()
	}
	wg.Wait()
}

func TestZone_Labels(t *testing.T) {
	if got := UTM37N.Label(); got != "37N" {
		t.Errorf("Label() = %q", got)
	}
	if got := UTM37N.CRS(); got != "EPSG:32637" {
		t.Errorf("CRS() = %q", got)
	}
}
