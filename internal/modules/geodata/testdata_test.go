package geodata

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aristath/boothmap/pkg/geo"
)

// Helpers that synthesize minimal .shp / .dbf files for the reader tests.

func putFloat64(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}

func shpHeader(shapeType, fileLenWords int) []byte {
	h := make([]byte, shpHeaderSize)
	binary.BigEndian.PutUint32(h[0:4], shpFileCode)
	binary.BigEndian.PutUint32(h[24:28], uint32(fileLenWords))
	binary.LittleEndian.PutUint32(h[28:32], 1000)
	binary.LittleEndian.PutUint32(h[32:36], uint32(shapeType))
	return h
}

func writeSHPPoints(t *testing.T, dir, name string, points []geo.Point) string {
	t.Helper()

	var records []byte
	for i, p := range points {
		body := make([]byte, 20)
		binary.LittleEndian.PutUint32(body[0:4], shapePoint)
		putFloat64(body[4:12], p.Lon)
		putFloat64(body[12:20], p.Lat)

		rec := make([]byte, 8)
		binary.BigEndian.PutUint32(rec[0:4], uint32(i+1))
		binary.BigEndian.PutUint32(rec[4:8], uint32(len(body)/2))
		records = append(records, rec...)
		records = append(records, body...)
	}

	data := append(shpHeader(shapePoint, (shpHeaderSize+len(records))/2), records...)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func writeSHPPolygons(t *testing.T, dir, name string, polys [][]Ring) string {
	t.Helper()

	var records []byte
	for i, rings := range polys {
		// A nil ring set becomes a null-shape record
		if len(rings) == 0 {
			body := make([]byte, 4)
			binary.LittleEndian.PutUint32(body, shapeNull)
			rec := make([]byte, 8)
			binary.BigEndian.PutUint32(rec[0:4], uint32(i+1))
			binary.BigEndian.PutUint32(rec[4:8], uint32(len(body)/2))
			records = append(records, rec...)
			records = append(records, body...)
			continue
		}

		numPoints := 0
		for _, r := range rings {
			numPoints += len(r)
		}

		body := make([]byte, 44+len(rings)*4+numPoints*16)
		binary.LittleEndian.PutUint32(body[0:4], shapePolygon)
		binary.LittleEndian.PutUint32(body[36:40], uint32(len(rings)))
		binary.LittleEndian.PutUint32(body[40:44], uint32(numPoints))

		offset := 0
		for r, ring := range rings {
			binary.LittleEndian.PutUint32(body[44+r*4:48+r*4], uint32(offset))
			offset += len(ring)
		}

		base := 44 + len(rings)*4
		v := 0
		for _, ring := range rings {
			for _, pt := range ring {
				putFloat64(body[base+v*16:], pt.Lon)
				putFloat64(body[base+v*16+8:], pt.Lat)
				v++
			}
		}

		rec := make([]byte, 8)
		binary.BigEndian.PutUint32(rec[0:4], uint32(i+1))
		binary.BigEndian.PutUint32(rec[4:8], uint32(len(body)/2))
		records = append(records, rec...)
		records = append(records, body...)
	}

	data := append(shpHeader(shapePolygon, (shpHeaderSize+len(records))/2), records...)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

type dbfColumn struct {
	name   string
	length int
}

func writeDBF(t *testing.T, dir, name string, cols []dbfColumn, rows [][]string) string {
	t.Helper()

	headerSize := 32 + 32*len(cols) + 1
	recordSize := 1
	for _, c := range cols {
		recordSize += c.length
	}

	data := make([]byte, 0, headerSize+recordSize*len(rows)+1)

	header := make([]byte, 32)
	header[0] = 0x03 // dBase III without memo
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(rows)))
	binary.LittleEndian.PutUint16(header[8:10], uint16(headerSize))
	binary.LittleEndian.PutUint16(header[10:12], uint16(recordSize))
	data = append(data, header...)

	for _, c := range cols {
		desc := make([]byte, 32)
		copy(desc[0:11], c.name)
		desc[11] = 'C'
		desc[16] = byte(c.length)
		data = append(data, desc...)
	}
	data = append(data, 0x0D)

	for _, row := range rows {
		rec := make([]byte, recordSize)
		rec[0] = 0x20 // not deleted
		pos := 1
		for i, c := range cols {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			copy(rec[pos:pos+c.length], padRight(val, c.length))
			pos += c.length
		}
		data = append(data, rec...)
	}
	data = append(data, 0x1A)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func padRight(s string, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}
