package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKnownDistance(t *testing.T) {
	// New Delhi -> Mumbai, roughly 1150 km
	delhi := Point{Lat: 28.6139, Lon: 77.2090}
	mumbai := Point{Lat: 19.0760, Lon: 72.8777}

	d := Haversine(delhi, mumbai)
	assert.InDelta(t, 1150000, d, 20000)
}

func TestHaversineZero(t *testing.T) {
	p := Point{Lat: 12.9716, Lon: 77.5946}
	assert.Equal(t, 0.0, Haversine(p, p))
}

func TestHaversineSymmetry(t *testing.T) {
	a := Point{Lat: 26.9124, Lon: 75.7873}
	b := Point{Lat: 26.9200, Lon: 75.8000}
	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)
}

func TestHaversineSmallOffsets(t *testing.T) {
	// ~0.009 degrees latitude is close to 1 km
	a := Point{Lat: 20.0, Lon: 78.0}
	b := Point{Lat: 20.009, Lon: 78.0}
	assert.InDelta(t, 1000, Haversine(a, b), 10)
}

func TestProjectLocal(t *testing.T) {
	origin := Point{Lat: 20.0, Lon: 78.0}

	// One degree of latitude is ~111.19 km regardless of longitude
	_, y := ProjectLocal(origin, Point{Lat: 21.0, Lon: 78.0})
	assert.InDelta(t, 111194, y, 200)

	// Planar distance should approximate haversine at small offsets
	p := Point{Lat: 20.01, Lon: 78.01}
	x, y := ProjectLocal(origin, p)
	planar := x*x + y*y
	hav := Haversine(origin, p)
	assert.InDelta(t, hav*hav, planar, hav*hav*0.01)
}
