// Package geodata loads constituency boundaries and booth locations from
// shapefiles and prepares per-unit inputs for the sampling engine.
package geodata

import "github.com/aristath/boothmap/pkg/geo"

// Ring is a closed sequence of vertices (first == last in well-formed data)
type Ring []geo.Point

// Polygon is a shapefile polygon: one or more rings. Outer rings are
// clockwise, holes counter-clockwise; even-odd containment handles both
// without needing the winding order.
type Polygon struct {
	Rings []Ring
	// Bounding box, precomputed for cheap rejection
	MinLat, MinLon, MaxLat, MaxLon float64
}

// NewPolygon builds a polygon and computes its bounding box
func NewPolygon(rings []Ring) Polygon {
	p := Polygon{Rings: rings}
	first := true
	for _, ring := range rings {
		for _, v := range ring {
			if first {
				p.MinLat, p.MaxLat = v.Lat, v.Lat
				p.MinLon, p.MaxLon = v.Lon, v.Lon
				first = false
				continue
			}
			if v.Lat < p.MinLat {
				p.MinLat = v.Lat
			}
			if v.Lat > p.MaxLat {
				p.MaxLat = v.Lat
			}
			if v.Lon < p.MinLon {
				p.MinLon = v.Lon
			}
			if v.Lon > p.MaxLon {
				p.MaxLon = v.Lon
			}
		}
	}
	return p
}

// Contains reports whether the point lies inside the polygon using even-odd
// ray casting across all rings, so holes exclude correctly.
func (p Polygon) Contains(pt geo.Point) bool {
	if pt.Lat < p.MinLat || pt.Lat > p.MaxLat || pt.Lon < p.MinLon || pt.Lon > p.MaxLon {
		return false
	}

	inside := false
	for _, ring := range p.Rings {
		n := len(ring)
		if n < 3 {
			continue
		}
		j := n - 1
		for i := 0; i < n; i++ {
			vi, vj := ring[i], ring[j]
			if (vi.Lat > pt.Lat) != (vj.Lat > pt.Lat) {
				intersectLon := vi.Lon + (pt.Lat-vi.Lat)/(vj.Lat-vi.Lat)*(vj.Lon-vi.Lon)
				if pt.Lon < intersectLon {
					inside = !inside
				}
			}
			j = i
		}
	}
	return inside
}
