package geodata

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// dbfField describes one column of a dBase III attribute table
type dbfField struct {
	Name   string
	Type   byte
	Length int
}

// AttributeTable holds the decoded rows of a .dbf file. Row order matches
// the record order of the companion .shp file.
type AttributeTable struct {
	Fields []dbfField
	Rows   []map[string]string
}

// HasColumn reports whether the table has a column with the exact name
func (t *AttributeTable) HasColumn(name string) bool {
	for _, f := range t.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Column returns the first column name matching any of the given patterns,
// mirroring the loose header conventions of the source shapefiles.
func (t *AttributeTable) Column(patterns ...string) string {
	for _, p := range patterns {
		if t.HasColumn(p) {
			return p
		}
	}
	return ""
}

// Value returns a row's value for the column selected by the patterns,
// or "" when no column matches.
func (t *AttributeTable) Value(row int, patterns ...string) string {
	col := t.Column(patterns...)
	if col == "" || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][col]
}

// ReadDBF decodes a dBase III attribute table. All values are returned as
// trimmed strings; numeric parsing is left to the caller.
func ReadDBF(path string) (*AttributeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dbf: %w", err)
	}
	if len(data) < 32 {
		return nil, fmt.Errorf("file too short for dbf header")
	}

	numRecords := int(binary.LittleEndian.Uint32(data[4:8]))
	headerSize := int(binary.LittleEndian.Uint16(data[8:10]))
	recordSize := int(binary.LittleEndian.Uint16(data[10:12]))

	if headerSize < 33 || headerSize > len(data) {
		return nil, fmt.Errorf("malformed dbf header size %d", headerSize)
	}

	// Field descriptors: 32 bytes each from offset 32, terminated by 0x0D
	var fields []dbfField
	for off := 32; off+32 <= headerSize && data[off] != 0x0D; off += 32 {
		desc := data[off : off+32]
		name := strings.TrimRight(string(desc[0:11]), "\x00")
		fields = append(fields, dbfField{
			Name:   name,
			Type:   desc[11],
			Length: int(desc[16]),
		})
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("dbf has no field descriptors")
	}

	table := &AttributeTable{Fields: fields}
	for r := 0; r < numRecords; r++ {
		start := headerSize + r*recordSize
		if start+recordSize > len(data) {
			break // Trailing EOF marker or truncated tail
		}
		record := data[start : start+recordSize]
		if record[0] == 0x2A { // '*' marks a deleted record
			continue
		}

		row := make(map[string]string, len(fields))
		pos := 1
		for _, f := range fields {
			if pos+f.Length > len(record) {
				break
			}
			row[f.Name] = strings.TrimSpace(string(record[pos : pos+f.Length]))
			pos += f.Length
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
