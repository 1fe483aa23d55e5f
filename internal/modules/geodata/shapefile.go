package geodata

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/aristath/boothmap/pkg/geo"
)

// ESRI shapefile geometry types used here
const (
	shapeNull    = 0
	shapePoint   = 1
	shapePolygon = 5
)

const shpFileCode = 9994
const shpHeaderSize = 100

// ReadPoints reads all point records from a .shp file. Null shapes are
// skipped but keep their record slot (nil entry) so indices stay aligned
// with the companion .dbf rows.
func ReadPoints(path string) ([]*geo.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shapefile: %w", err)
	}
	if err := checkHeader(data); err != nil {
		return nil, err
	}

	var points []*geo.Point
	offset := shpHeaderSize
	for offset+8 <= len(data) {
		contentLen := int(binary.BigEndian.Uint32(data[offset+4:offset+8])) * 2
		body := offset + 8
		if body+contentLen > len(data) {
			return nil, fmt.Errorf("truncated shapefile record at offset %d", offset)
		}

		shapeType := int(binary.LittleEndian.Uint32(data[body : body+4]))
		switch shapeType {
		case shapeNull:
			points = append(points, nil)
		case shapePoint:
			if contentLen < 20 {
				return nil, fmt.Errorf("short point record at offset %d", offset)
			}
			x := readFloat64(data[body+4:])
			y := readFloat64(data[body+12:])
			points = append(points, &geo.Point{Lat: y, Lon: x})
		default:
			return nil, fmt.Errorf("unexpected shape type %d in point shapefile", shapeType)
		}

		offset = body + contentLen
	}

	return points, nil
}

// ReadPolygons reads all polygon records from a .shp file, one Polygon per
// record (all rings of a record stay together).
func ReadPolygons(path string) ([]*Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shapefile: %w", err)
	}
	if err := checkHeader(data); err != nil {
		return nil, err
	}

	var polygons []*Polygon
	offset := shpHeaderSize
	for offset+8 <= len(data) {
		contentLen := int(binary.BigEndian.Uint32(data[offset+4:offset+8])) * 2
		body := offset + 8
		if body+contentLen > len(data) {
			return nil, fmt.Errorf("truncated shapefile record at offset %d", offset)
		}

		shapeType := int(binary.LittleEndian.Uint32(data[body : body+4]))
		switch shapeType {
		case shapeNull:
			polygons = append(polygons, nil)
		case shapePolygon:
			poly, err := parsePolygon(data[body : body+contentLen])
			if err != nil {
				return nil, fmt.Errorf("record at offset %d: %w", offset, err)
			}
			polygons = append(polygons, poly)
		default:
			return nil, fmt.Errorf("unexpected shape type %d in polygon shapefile", shapeType)
		}

		offset = body + contentLen
	}

	return polygons, nil
}

// parsePolygon decodes a polygon record body: shape type, box, part offsets,
// then the flat vertex array split into rings.
func parsePolygon(body []byte) (*Polygon, error) {
	// 4 type + 32 box + 4 numParts + 4 numPoints
	if len(body) < 44 {
		return nil, fmt.Errorf("short polygon record")
	}
	numParts := int(binary.LittleEndian.Uint32(body[36:40]))
	numPoints := int(binary.LittleEndian.Uint32(body[40:44]))

	partsEnd := 44 + numParts*4
	pointsEnd := partsEnd + numPoints*16
	if numParts < 1 || numPoints < 1 || pointsEnd > len(body) {
		return nil, fmt.Errorf("malformed polygon record (%d parts, %d points)", numParts, numPoints)
	}

	parts := make([]int, numParts)
	for i := 0; i < numParts; i++ {
		parts[i] = int(binary.LittleEndian.Uint32(body[44+i*4 : 48+i*4]))
	}

	rings := make([]Ring, 0, numParts)
	for i := 0; i < numParts; i++ {
		start := parts[i]
		end := numPoints
		if i+1 < numParts {
			end = parts[i+1]
		}
		if start < 0 || end > numPoints || start > end {
			return nil, fmt.Errorf("malformed part offsets")
		}
		ring := make(Ring, 0, end-start)
		for j := start; j < end; j++ {
			base := partsEnd + j*16
			ring = append(ring, geo.Point{
				Lon: readFloat64(body[base:]),
				Lat: readFloat64(body[base+8:]),
			})
		}
		rings = append(rings, ring)
	}

	poly := NewPolygon(rings)
	return &poly, nil
}

func checkHeader(data []byte) error {
	if len(data) < shpHeaderSize {
		return fmt.Errorf("file too short for shapefile header")
	}
	if code := binary.BigEndian.Uint32(data[0:4]); code != shpFileCode {
		return fmt.Errorf("not a shapefile (file code %d)", code)
	}
	return nil
}

func readFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
