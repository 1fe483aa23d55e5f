package maps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/boothmap/internal/domain"
	"github.com/aristath/boothmap/internal/modules/sampling"
	"github.com/aristath/boothmap/pkg/geo"
)

func testUnitResult(selections int) *sampling.UnitResult {
	res := &sampling.UnitResult{
		UnitCode:      "12",
		UnitName:      "Fort Kochi / Mattancherry",
		State:         "Kerala",
		Kind:          domain.KindAC,
		ClustersCount: 2,
		Booths: []domain.Booth{
			{Code: "101", Name: "School A", Latitude: 9.96, Longitude: 76.24, Cluster: 0},
			{Code: "102", Name: "School B", Latitude: 9.97, Longitude: 76.25, Cluster: 1},
		},
		Centroids: []geo.Point{
			{Lat: 9.96, Lon: 76.24},
			{Lat: 9.97, Lon: 76.25},
		},
	}
	for i := 0; i < selections; i++ {
		res.Booths[i].Selected = true
		res.Booths[i].Rank = 1
		res.Selections = append(res.Selections, domain.SelectionResult{
			Booth: res.Booths[i], Cluster: i, Rank: 1,
		})
	}
	return res
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "12_Fort_Kochi___Mattancherry_map.html",
		FileName("12", "Fort Kochi / Mattancherry"))
	assert.Equal(t, "3_Plain_map.html", FileName("3", "Plain"))
}

func TestRenderAllWritesMapDocument(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(zerolog.Nop())

	files, err := r.RenderAll(dir, []*sampling.UnitResult{testUnitResult(2)})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "12_Fort_Kochi___Mattancherry_map.html"), files[0])

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	html := string(content)

	assert.Contains(t, html, "leaflet")
	assert.Contains(t, html, "School A")
	assert.Contains(t, html, `"code":"101"`)
	assert.Contains(t, html, `"selected":true`)
	assert.Contains(t, html, "Cluster ")
}

func TestRenderAllSkipsUnitsWithoutSelections(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(zerolog.Nop())

	files, err := r.RenderAll(dir, []*sampling.UnitResult{testUnitResult(0)})
	require.NoError(t, err)
	assert.Empty(t, files)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClusterColorStable(t *testing.T) {
	assert.Equal(t, clusterColor(0), clusterColor(0))
	assert.NotEqual(t, clusterColor(0), clusterColor(1))
	assert.Equal(t, clusterColor(1), clusterColor(1+len(palette)))
	assert.Equal(t, "#555555", clusterColor(-1))
}
