package geodesy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voalab/voacap-apps/internal/geodesy"
)

func TestLocalEarthRadius(t *testing.T) {
	// At the equator the formula collapses to the minor axis.
	assert.InDelta(t, 6356.912, geodesy.LocalEarthRadius(0), 1e-6)

	// Radius grows monotonically toward the poles.
	prev := geodesy.LocalEarthRadius(0)
	for lat := 10.0; lat <= 90; lat += 10 {
		r := geodesy.LocalEarthRadius(lat)
		assert.Greater(t, r, prev, "lat %v", lat)
		prev = r
	}

	// Symmetric about the equator.
	assert.InDelta(t, geodesy.LocalEarthRadius(45), geodesy.LocalEarthRadius(-45), 1e-9)
}

func TestDistanceBearingHelsinkiSydney(t *testing.T) {
	helsinki := geodesy.Point{Lat: 60.17, Lon: 24.94}
	sydney := geodesy.Point{Lat: -33.87, Lon: 151.21}

	// Central angle is 136.7 degrees; on the local radius at Helsinki
	// that is just over 15,240 km.
	km, deg := geodesy.DistanceBearing(helsinki, sydney)
	assert.InEpsilon(t, 15244, km, 0.01)
	assert.InDelta(t, 77.5, deg, 0.5)
	assert.GreaterOrEqual(t, deg, 0.0)
	assert.Less(t, deg, 360.0)
}

func TestDistanceBearingCardinalDirections(t *testing.T) {
	origin := geodesy.Point{Lat: 0, Lon: 0}

	_, north := geodesy.DistanceBearing(origin, geodesy.Point{Lat: 10, Lon: 0})
	assert.InDelta(t, 0, north, 1e-6)

	_, east := geodesy.DistanceBearing(origin, geodesy.Point{Lat: 0, Lon: 10})
	assert.InDelta(t, 90, east, 1e-6)

	_, south := geodesy.DistanceBearing(origin, geodesy.Point{Lat: -10, Lon: 0})
	assert.InDelta(t, 180, south, 1e-6)

	_, west := geodesy.DistanceBearing(origin, geodesy.Point{Lat: 0, Lon: -10})
	assert.InDelta(t, 270, west, 1e-6)
}

func TestDistanceBearingIdenticalPoints(t *testing.T) {
	p := geodesy.Point{Lat: 45.5, Lon: -120.25}
	km, _ := geodesy.DistanceBearing(p, p)
	assert.InDelta(t, 0, km, 1e-6)
}

func TestDistanceEquatorDegree(t *testing.T) {
	// One degree of arc on the equatorial sphere of radius b.
	km, _ := geodesy.DistanceBearing(geodesy.Point{}, geodesy.Point{Lat: 0, Lon: 1})
	assert.InDelta(t, 6356.912*3.14159265358979/180, km, 0.01)
}

func TestMidpoint(t *testing.T) {
	mid := geodesy.Midpoint(geodesy.Point{Lat: 0, Lon: 0}, geodesy.Point{Lat: 0, Lon: 90})
	assert.InDelta(t, 0, mid.Lat, 1e-9)
	assert.InDelta(t, 45, mid.Lon, 1e-9)

	mid = geodesy.Midpoint(geodesy.Point{Lat: -30, Lon: 10}, geodesy.Point{Lat: 30, Lon: 10})
	assert.InDelta(t, 0, mid.Lat, 1e-9)
	assert.InDelta(t, 10, mid.Lon, 1e-9)
}
