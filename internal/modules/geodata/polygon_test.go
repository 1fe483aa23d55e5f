package geodata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/boothmap/pkg/geo"
)

func squareRing(minLat, minLon, maxLat, maxLon float64) Ring {
	return Ring{
		{Lat: minLat, Lon: minLon},
		{Lat: minLat, Lon: maxLon},
		{Lat: maxLat, Lon: maxLon},
		{Lat: maxLat, Lon: minLon},
		{Lat: minLat, Lon: minLon},
	}
}

func TestPolygonContains(t *testing.T) {
	p := NewPolygon([]Ring{squareRing(20, 78, 21, 79)})

	assert.True(t, p.Contains(geo.Point{Lat: 20.5, Lon: 78.5}))
	assert.False(t, p.Contains(geo.Point{Lat: 21.5, Lon: 78.5}))
	assert.False(t, p.Contains(geo.Point{Lat: 20.5, Lon: 77.5}))
}

func TestPolygonBoundingBoxShortCircuit(t *testing.T) {
	p := NewPolygon([]Ring{squareRing(20, 78, 21, 79)})

	assert.Equal(t, 20.0, p.MinLat)
	assert.Equal(t, 79.0, p.MaxLon)
	// Far outside the bbox
	assert.False(t, p.Contains(geo.Point{Lat: -33.8, Lon: 151.2}))
}

func TestPolygonWithHole(t *testing.T) {
	outer := squareRing(20, 78, 21, 79)
	hole := squareRing(20.4, 78.4, 20.6, 78.6)
	p := NewPolygon([]Ring{outer, hole})

	assert.True(t, p.Contains(geo.Point{Lat: 20.1, Lon: 78.1}))
	assert.False(t, p.Contains(geo.Point{Lat: 20.5, Lon: 78.5}), "point in hole")
}

func TestPolygonDegenerateRing(t *testing.T) {
	p := NewPolygon([]Ring{{{Lat: 20, Lon: 78}, {Lat: 21, Lon: 79}}})
	assert.False(t, p.Contains(geo.Point{Lat: 20.5, Lon: 78.5}))
}
