package geodata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/boothmap/internal/domain"
	"github.com/aristath/boothmap/pkg/geo"
)

// Cache persists parsed state geodata on disk so a state's shapefiles are
// downloaded and decoded once per process lifetime, not once per run.
// Entries are msgpack-encoded, one file per (state, kind).
type Cache struct {
	dir string
	mu  sync.Mutex
}

// cachedBoundary flattens Boundary for serialization
type cachedBoundary struct {
	Code  string        `msgpack:"code"`
	Name  string        `msgpack:"name"`
	Rings [][][2]float64 `msgpack:"rings"` // [ring][vertex][lat lon]
}

type cachedGeodata struct {
	State      string           `msgpack:"state"`
	Kind       string           `msgpack:"kind"`
	Boundaries []cachedBoundary `msgpack:"boundaries"`
	Booths     []domain.Booth   `msgpack:"booths"`
}

// NewCache creates a cache rooted at dir, creating the directory if needed
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create geodata cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Get returns a cached entry, or ok=false when absent or unreadable
func (c *Cache) Get(state string, kind domain.UnitKind) (*StateGeodata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(state, kind))
	if err != nil {
		return nil, false
	}

	var entry cachedGeodata
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		// Corrupt cache entry: drop it and refetch
		_ = os.Remove(c.path(state, kind))
		return nil, false
	}

	gd := &StateGeodata{
		State:  entry.State,
		Kind:   domain.UnitKind(entry.Kind),
		Booths: entry.Booths,
	}
	for _, cb := range entry.Boundaries {
		rings := make([]Ring, 0, len(cb.Rings))
		for _, cr := range cb.Rings {
			ring := make(Ring, 0, len(cr))
			for _, v := range cr {
				ring = append(ring, geo.Point{Lat: v[0], Lon: v[1]})
			}
			rings = append(rings, ring)
		}
		gd.Boundaries = append(gd.Boundaries, Boundary{
			Code:    cb.Code,
			Name:    cb.Name,
			Polygon: NewPolygon(rings),
		})
	}
	for i := range gd.Booths {
		gd.Booths[i].Cluster = -1
	}
	return gd, true
}

// Put writes an entry, replacing any existing one for the same (state, kind)
func (c *Cache) Put(gd *StateGeodata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cachedGeodata{
		State:  gd.State,
		Kind:   string(gd.Kind),
		Booths: gd.Booths,
	}
	for _, b := range gd.Boundaries {
		cb := cachedBoundary{Code: b.Code, Name: b.Name}
		for _, ring := range b.Polygon.Rings {
			cr := make([][2]float64, 0, len(ring))
			for _, v := range ring {
				cr = append(cr, [2]float64{v.Lat, v.Lon})
			}
			cb.Rings = append(cb.Rings, cr)
		}
		entry.Boundaries = append(entry.Boundaries, cb)
	}

	data, err := msgpack.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("failed to encode geodata cache entry: %w", err)
	}

	tmp := c.path(gd.State, gd.Kind) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write geodata cache entry: %w", err)
	}
	return os.Rename(tmp, c.path(gd.State, gd.Kind))
}

func (c *Cache) path(state string, kind domain.UnitKind) string {
	safe := strings.ReplaceAll(state, string(filepath.Separator), "_")
	return filepath.Join(c.dir, fmt.Sprintf("%s.%s.geodata", safe, kind))
}
