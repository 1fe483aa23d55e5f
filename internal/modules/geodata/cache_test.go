package geodata

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/boothmap/internal/domain"
	"github.com/aristath/boothmap/pkg/geo"
)

func sampleGeodata() *StateGeodata {
	return &StateGeodata{
		State: "TestState",
		Kind:  domain.KindAC,
		Boundaries: []Boundary{
			{
				Code:    "1",
				Name:    "Test AC",
				Polygon: NewPolygon([]Ring{squareRing(20, 78, 21, 79)}),
			},
		},
		Booths: []domain.Booth{
			{Code: "101", Name: "School A", AC: "1", Latitude: 20.5, Longitude: 78.5, Cluster: -1},
		},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Put(sampleGeodata()))

	got, ok := cache.Get("TestState", domain.KindAC)
	require.True(t, ok)

	assert.Equal(t, "TestState", got.State)
	assert.Equal(t, domain.KindAC, got.Kind)
	require.Len(t, got.Boundaries, 1)
	assert.Equal(t, "1", got.Boundaries[0].Code)
	assert.True(t, got.Boundaries[0].Polygon.Contains(geo.Point{Lat: 20.5, Lon: 78.5}))
	require.Len(t, got.Booths, 1)
	assert.Equal(t, "101", got.Booths[0].Code)
	assert.Equal(t, -1, got.Booths[0].Cluster)
}

func TestCacheMiss(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	_, ok := cache.Get("Nowhere", domain.KindPC)
	assert.False(t, ok)
}

func TestCacheKindsAreSeparate(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Put(sampleGeodata()))

	_, ok := cache.Get("TestState", domain.KindPC)
	assert.False(t, ok)
}

func TestCacheCorruptEntryDropped(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(dir)
	require.NoError(t, err)

	require.NoError(t, cache.Put(sampleGeodata()))
	path := cache.path("TestState", domain.KindAC)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	_, ok := cache.Get("TestState", domain.KindAC)
	assert.False(t, ok)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "corrupt entry should be removed")
}
