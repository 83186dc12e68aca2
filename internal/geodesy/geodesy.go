// Package geodesy provides great-circle math on a sphere whose radius
// is corrected for latitude using the Hayford 1909 ellipsoid axes.
// All functions are pure; coordinates are degrees, positive north/east.
package geodesy

import "math"

// Hayford (1909) semi-axes in kilometres.
const (
	majorAxisKm = 6378.388
	minorAxisKm = 6356.912
)

// eccSq is the first eccentricity squared, (a^2 - b^2) / a^2.
var eccSq = (majorAxisKm*majorAxisKm - minorAxisKm*minorAxisKm) / (majorAxisKm * majorAxisKm)

// Point is an immutable geographic position in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// LocalEarthRadius returns the earth radius in km at the given latitude:
// R(lat) = a*sqrt(1-e^2) / (1 - e^2*sin^2(lat)).
func LocalEarthRadius(lat float64) float64 {
	sinLat := math.Sin(lat * math.Pi / 180)
	return majorAxisKm * math.Sqrt(1-eccSq) / (1 - eccSq*sinLat*sinLat)
}

// DistanceBearing returns the great-circle distance in km and the
// initial bearing in degrees true, normalized into [0,360). Distance
// uses the spherical law of cosines on the local radius at p1.
func DistanceBearing(p1, p2 Point) (km, deg float64) {
	lo1 := -p1.Lon * math.Pi / 180
	la1 := p1.Lat * math.Pi / 180
	lo2 := -p2.Lon * math.Pi / 180
	la2 := p2.Lat * math.Pi / 180

	radius := LocalEarthRadius(p1.Lat)

	cosArc := math.Cos(la1)*math.Cos(lo1)*math.Cos(la2)*math.Cos(lo2) +
		math.Cos(la1)*math.Sin(lo1)*math.Cos(la2)*math.Sin(lo2) +
		math.Sin(la1)*math.Sin(la2)
	// Guard acos against rounding just outside [-1,1] for near-identical
	// or antipodal points.
	cosArc = math.Max(-1, math.Min(1, cosArc))
	km = math.Acos(cosArc) * radius

	deg = math.Atan2(
		math.Sin(lo1-lo2)*math.Cos(la2),
		math.Cos(la1)*math.Sin(la2)-math.Sin(la1)*math.Cos(la2)*math.Cos(lo1-lo2),
	) / math.Pi * 180
	if deg < 0 {
		deg += 360
	}
	return km, deg
}

// Midpoint returns the spherical midpoint of the great-circle path
// between p1 and p2.
func Midpoint(p1, p2 Point) Point {
	la1 := p1.Lat * math.Pi / 180
	la2 := p2.Lat * math.Pi / 180
	lo1 := p1.Lon * math.Pi / 180
	dLon := (p2.Lon - p1.Lon) * math.Pi / 180

	bx := math.Cos(la2) * math.Cos(dLon)
	by := math.Cos(la2) * math.Sin(dLon)

	lat := math.Atan2(
		math.Sin(la1)+math.Sin(la2),
		math.Sqrt((math.Cos(la1)+bx)*(math.Cos(la1)+bx)+by*by),
	)
	lon := lo1 + math.Atan2(by, math.Cos(la1)+bx)

	p := Point{Lat: lat * 180 / math.Pi, Lon: lon * 180 / math.Pi}
	if p.Lon > 180 {
		p.Lon -= 360
	} else if p.Lon < -180 {
		p.Lon += 360
	}
	return p
}
