package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/boothmap/internal/domain"
)

func TestWriteSummaryCSVColumnOrder(t *testing.T) {
	records := []domain.SummaryRecord{
		{
			UnitCode:         "1",
			UnitName:         "North",
			TotalBooths:      120,
			SelectedBooths:   10,
			Status:           domain.StatusNotCompleted,
			Reason:           "Only 10 booths selected out of 24 required",
			SamplesRequested: 300,
		},
		{
			UnitCode:         "2",
			UnitName:         "South",
			TotalBooths:      80,
			SelectedBooths:   8,
			Status:           domain.StatusCompleted,
			SamplesRequested: 100,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, domain.KindAC, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"AC", "AC_Name", "Total_Booths", "Selected_Booths",
		"Status", "Reason", "Samples_Requested",
	}, rows[0])
	assert.Equal(t, []string{
		"1", "North", "120", "10", "Not completed",
		"Only 10 booths selected out of 24 required", "300",
	}, rows[1])
	assert.Equal(t, "Completed", rows[2][4])
}

func TestWriteSummaryCSVParliamentaryHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, domain.KindPC, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "PC", rows[0][0])
	assert.Equal(t, "PC_Name", rows[0][1])
}

func TestWriteSelectionsCSV(t *testing.T) {
	records := []domain.SelectionRecord{
		{
			State:        "Kerala",
			District:     "7",
			DistrictName: "Ernakulam",
			PC:           "12",
			PCName:       "Ernakulam PC",
			AC:           "77",
			ACName:       "Kochi",
			Booth:        "101",
			BoothName:    "St. Mary's School",
			Cluster:      3,
			Latitude:     9.9312,
			Longitude:    76.2673,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSelectionsCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{
		"state", "district", "district_name", "pc", "pc_name",
		"ac", "ac_name", "booth", "booth_name", "cluster", "latitude", "longitude",
	}, rows[0])
	assert.Equal(t, []string{
		"Kerala", "7", "Ernakulam", "12", "Ernakulam PC",
		"77", "Kochi", "101", "St. Mary's School", "3", "9.9312", "76.2673",
	}, rows[1])
}

func TestWriteMapsZip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2_South_map.html"), []byte("<html>south</html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1_North_map.html"), []byte("<html>north</html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644))

	var buf bytes.Buffer
	require.NoError(t, WriteMapsZip(&buf, dir))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	// Sorted entries, non-HTML files excluded
	assert.Equal(t, "1_North_map.html", zr.File[0].Name)
	assert.Equal(t, "2_South_map.html", zr.File[1].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<html>north</html>", string(content))
}

func TestWriteMapsZipMissingDir(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMapsZip(&buf, filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
