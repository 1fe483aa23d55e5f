// Package geo provides geodesic distance calculations on WGS84 coordinates.
package geo

import "math"

const (
	// EarthRadiusM is the mean Earth radius in meters
	EarthRadiusM = 6371000.0
)

// Point is a geographic coordinate (EPSG:4326)
type Point struct {
	Lat float64
	Lon float64
}

// Distancer computes the geodesic distance between two points in meters.
// The sampling engine depends on this interface rather than a concrete formula.
type Distancer interface {
	Distance(a, b Point) float64
}

// Haversine computes the great-circle distance between two points in meters.
func Haversine(a, b Point) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusM * c
}

// HaversineDistancer is the default Distancer backed by the haversine formula.
type HaversineDistancer struct{}

// Distance implements Distancer
func (HaversineDistancer) Distance(a, b Point) float64 {
	return Haversine(a, b)
}

// ProjectLocal converts a point to local planar coordinates in meters relative
// to an origin, using an equirectangular approximation. Adequate for the
// intra-constituency scales the clustering operates on.
func ProjectLocal(origin, p Point) (x, y float64) {
	latRad := origin.Lat * math.Pi / 180
	x = (p.Lon - origin.Lon) * math.Pi / 180 * EarthRadiusM * math.Cos(latRad)
	y = (p.Lat - origin.Lat) * math.Pi / 180 * EarthRadiusM
	return x, y
}
