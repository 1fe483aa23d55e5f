package geodata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/boothmap/internal/domain"
	"github.com/aristath/boothmap/pkg/geo"
)

// ErrNoGeometry is returned when a state has no usable boundary records
var ErrNoGeometry = errors.New("geodata: no boundary geometry found")

// Column name patterns recognized in shapefile attribute tables. The source
// shapefiles are inconsistent about casing and suffixes, so each attribute
// is resolved through an ordered pattern list.
var (
	boothCodePatterns    = []string{"booth", "booth_no", "BOOTH_NO", "BOOTH"}
	boothNamePatterns    = []string{"booth_name", "BOOTH_NAME", "name", "NAME"}
	districtPatterns     = []string{"district", "DISTRICT", "dist", "DIST"}
	districtNamePatterns = []string{"district_n", "DISTRICT_N", "dist_name", "DIST_NAME"}
	pcPatterns           = []string{"pc", "PC", "pc_no", "PC_NO"}
	pcNamePatterns       = []string{"pc_name", "PC_NAME"}
	acPatterns           = []string{"ac", "AC", "ac_no", "AC_NO"}
	acNamePatterns       = []string{"ac_name", "AC_NAME"}

	acCodePatterns     = []string{"ac_no", "ac", "AC_NO", "AC"}
	pcCodePatterns     = []string{"pc_no", "pc", "PC_NO", "PC"}
	boundaryNamePatterns = []string{"ac_name", "pc_name", "name", "AC_NAME", "PC_NAME", "NAME"}
)

// ShapefileSet holds local paths to the components of one downloaded shapefile
type ShapefileSet struct {
	SHP string
	DBF string
}

// Store fetches shapefile sets from remote storage. fileType is one of
// "assembly", "parliamentary" or "booth", matching the store's file naming.
type Store interface {
	ListStates(ctx context.Context) ([]string, error)
	Download(ctx context.Context, state, fileType string) (ShapefileSet, error)
}

// Boundary is one constituency boundary polygon with its identifying attributes
type Boundary struct {
	Code    string
	Name    string
	Polygon Polygon
}

// StateGeodata is the parsed geometry for one state and selection kind
type StateGeodata struct {
	State      string
	Kind       domain.UnitKind
	Boundaries []Boundary
	Booths     []domain.Booth
}

// Loader prepares per-unit engine inputs from remote shapefiles,
// with a local cache of parsed state geodata.
type Loader struct {
	store Store
	cache *Cache
	log   zerolog.Logger

	mu     sync.Mutex
	states []string
}

// NewLoader creates a geodata loader. cache may be nil to disable caching.
func NewLoader(store Store, cache *Cache, log zerolog.Logger) *Loader {
	return &Loader{
		store: store,
		cache: cache,
		log:   log.With().Str("service", "geodata").Logger(),
	}
}

// ListStates returns the states available in the shapefile store. The list
// is fetched once and then served from memory; RefreshStates re-reads it.
func (l *Loader) ListStates(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	cached := l.states
	l.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return l.RefreshStates(ctx)
}

// RefreshStates re-reads the state catalog from the store
func (l *Loader) RefreshStates(ctx context.Context) ([]string, error) {
	states, err := l.store.ListStates(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.states = states
	l.mu.Unlock()
	return states, nil
}

// UnitRef is a (code, name) pair identifying one AC or PC
type UnitRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ListUnits returns the constituency list for a state, sorted by code
func (l *Loader) ListUnits(ctx context.Context, state string, kind domain.UnitKind) ([]UnitRef, error) {
	gd, err := l.Load(ctx, state, kind)
	if err != nil {
		return nil, err
	}
	refs := make([]UnitRef, 0, len(gd.Boundaries))
	for _, b := range gd.Boundaries {
		refs = append(refs, UnitRef{Code: b.Code, Name: b.Name})
	}
	return refs, nil
}

// Load returns a state's parsed geodata, from cache when possible
func (l *Loader) Load(ctx context.Context, state string, kind domain.UnitKind) (*StateGeodata, error) {
	if l.cache != nil {
		if gd, ok := l.cache.Get(state, kind); ok {
			l.log.Debug().Str("state", state).Str("kind", string(kind)).Msg("geodata cache hit")
			return gd, nil
		}
	}

	gd, err := l.fetchAndParse(ctx, state, kind)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Put(gd); err != nil {
			l.log.Warn().Err(err).Str("state", state).Msg("failed to cache geodata")
		}
	}
	return gd, nil
}

// PrepareUnits builds the engine input for every constituency in a state:
// boundary attributes plus the booths falling inside each boundary polygon.
func (l *Loader) PrepareUnits(ctx context.Context, state string, kind domain.UnitKind, samplesPerUnit int) ([]domain.Unit, error) {
	gd, err := l.Load(ctx, state, kind)
	if err != nil {
		return nil, err
	}

	units := make([]domain.Unit, 0, len(gd.Boundaries))
	for _, boundary := range gd.Boundaries {
		if len(boundary.Polygon.Rings) == 0 {
			units = append(units, domain.Unit{
				Code:             boundary.Code,
				Name:             boundary.Name,
				State:            state,
				Kind:             kind,
				SamplesRequested: samplesPerUnit,
				MissingGeometry:  true,
			})
			continue
		}
		var members []domain.Booth
		for _, b := range gd.Booths {
			if boundary.Polygon.Contains(geo.Point{Lat: b.Latitude, Lon: b.Longitude}) {
				members = append(members, b)
			}
		}
		units = append(units, domain.Unit{
			Code:             boundary.Code,
			Name:             boundary.Name,
			State:            state,
			Kind:             kind,
			Booths:           members,
			SamplesRequested: samplesPerUnit,
		})
	}

	l.log.Info().
		Str("state", state).
		Str("kind", string(kind)).
		Int("units", len(units)).
		Int("booths", len(gd.Booths)).
		Msg("prepared units")

	return units, nil
}

func (l *Loader) fetchAndParse(ctx context.Context, state string, kind domain.UnitKind) (*StateGeodata, error) {
	boundaryType := "assembly"
	codePatterns := acCodePatterns
	if kind == domain.KindPC {
		boundaryType = "parliamentary"
		codePatterns = pcCodePatterns
	}

	boundarySet, err := l.store.Download(ctx, state, boundaryType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s shapefile for %s: %w", boundaryType, state, err)
	}
	boothSet, err := l.store.Download(ctx, state, "booth")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booth shapefile for %s: %w", state, err)
	}

	boundaries, err := l.parseBoundaries(boundarySet, codePatterns)
	if err != nil {
		return nil, err
	}
	booths, err := l.parseBooths(boothSet)
	if err != nil {
		return nil, err
	}

	return &StateGeodata{
		State:      state,
		Kind:       kind,
		Boundaries: boundaries,
		Booths:     booths,
	}, nil
}

func (l *Loader) parseBoundaries(set ShapefileSet, codePatterns []string) ([]Boundary, error) {
	polygons, err := ReadPolygons(set.SHP)
	if err != nil {
		return nil, err
	}
	attrs, err := ReadDBF(set.DBF)
	if err != nil {
		return nil, err
	}

	if attrs.Column(codePatterns...) == "" {
		return nil, fmt.Errorf("geodata: could not determine constituency code column")
	}

	var boundaries []Boundary
	for i := range attrs.Rows {
		code := normalizeCode(attrs.Value(i, codePatterns...))
		if code == "" {
			// No identifier to key a summary row on
			continue
		}
		name := attrs.Value(i, boundaryNamePatterns...)
		b := Boundary{Code: code, Name: name}
		// A null shape leaves the polygon empty; the unit is still reported
		if i < len(polygons) && polygons[i] != nil {
			b.Polygon = *polygons[i]
		}
		boundaries = append(boundaries, b)
	}
	if len(boundaries) == 0 {
		return nil, ErrNoGeometry
	}

	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].Code < boundaries[j].Code })
	return boundaries, nil
}

func (l *Loader) parseBooths(set ShapefileSet) ([]domain.Booth, error) {
	points, err := ReadPoints(set.SHP)
	if err != nil {
		return nil, err
	}
	attrs, err := ReadDBF(set.DBF)
	if err != nil {
		return nil, err
	}

	var booths []domain.Booth
	for i, pt := range points {
		if pt == nil || i >= len(attrs.Rows) {
			continue
		}
		booths = append(booths, domain.Booth{
			Code:         normalizeCode(attrs.Value(i, boothCodePatterns...)),
			Name:         attrs.Value(i, boothNamePatterns...),
			District:     normalizeCode(attrs.Value(i, districtPatterns...)),
			DistrictName: attrs.Value(i, districtNamePatterns...),
			PC:           normalizeCode(attrs.Value(i, pcPatterns...)),
			PCName:       attrs.Value(i, pcNamePatterns...),
			AC:           normalizeCode(attrs.Value(i, acPatterns...)),
			ACName:       attrs.Value(i, acNamePatterns...),
			Latitude:     pt.Lat,
			Longitude:    pt.Lon,
			Cluster:      -1,
		})
	}

	return booths, nil
}

// normalizeCode strips a numeric column's decimal formatting ("12.0" -> "12")
// so codes compare consistently across shapefiles.
func normalizeCode(v string) string {
	if v == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return v
}
