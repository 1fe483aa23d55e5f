// Package maps renders standalone Leaflet HTML documents for processed units:
// every booth colored by cluster, cluster centroids marked, selected booths
// highlighted with their rank.
package maps

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/boothmap/internal/modules/sampling"
)

// palette cycles per cluster id. Matches the qualitative colors commonly used
// for categorical map overlays.
var palette = []string{
	"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00",
	"#a65628", "#f781bf", "#999999", "#66c2a5", "#fc8d62",
	"#8da0cb", "#e78ac3",
}

// Renderer writes per-unit map documents
type Renderer struct {
	tmpl *template.Template
	log  zerolog.Logger
}

// NewRenderer creates a map renderer
func NewRenderer(log zerolog.Logger) *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("unit_map").Parse(mapTemplate)),
		log:  log.With().Str("service", "maps").Logger(),
	}
}

type boothMarker struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	Cluster  int     `json:"cluster"`
	Selected bool    `json:"selected"`
	Rank     int     `json:"rank,omitempty"`
}

type centroidMarker struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Cluster int     `json:"cluster"`
}

type viewModel struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Booths    template.JS
	Centroids template.JS
}

// FileName returns the map document name for a unit,
// "{code}_{name}_map.html" with spaces and slashes replaced.
func FileName(unitCode, unitName string) string {
	safe := strings.NewReplacer(" ", "_", "/", "_").Replace(unitName)
	return fmt.Sprintf("%s_%s_map.html", unitCode, safe)
}

// RenderAll writes one map per unit with at least one selection into dir.
// Returns the written file paths.
func (r *Renderer) RenderAll(dir string, units []*sampling.UnitResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create maps dir: %w", err)
	}

	var files []string
	for _, unit := range units {
		if len(unit.Selections) == 0 {
			continue
		}
		path := filepath.Join(dir, FileName(unit.UnitCode, unit.UnitName))
		if err := r.renderUnit(path, unit); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func (r *Renderer) renderUnit(path string, unit *sampling.UnitResult) error {
	booths := make([]boothMarker, 0, len(unit.Booths))
	var sumLat, sumLon float64
	for _, b := range unit.Booths {
		booths = append(booths, boothMarker{
			Lat:      b.Latitude,
			Lon:      b.Longitude,
			Code:     b.Code,
			Name:     b.Name,
			Color:    clusterColor(b.Cluster),
			Cluster:  b.Cluster,
			Selected: b.Selected,
			Rank:     b.Rank,
		})
		sumLat += b.Latitude
		sumLon += b.Longitude
	}

	centroids := make([]centroidMarker, 0, len(unit.Centroids))
	for i, c := range unit.Centroids {
		centroids = append(centroids, centroidMarker{Lat: c.Lat, Lon: c.Lon, Cluster: i})
	}

	boothJSON, err := json.Marshal(booths)
	if err != nil {
		return fmt.Errorf("failed to encode booth markers: %w", err)
	}
	centroidJSON, err := json.Marshal(centroids)
	if err != nil {
		return fmt.Errorf("failed to encode centroid markers: %w", err)
	}

	vm := viewModel{
		Title:     fmt.Sprintf("%s (%s)", unit.UnitName, unit.UnitCode),
		Booths:    template.JS(boothJSON),
		Centroids: template.JS(centroidJSON),
	}
	if n := len(unit.Booths); n > 0 {
		vm.CenterLat = sumLat / float64(n)
		vm.CenterLon = sumLon / float64(n)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create map file: %w", err)
	}
	defer f.Close()

	if err := r.tmpl.Execute(f, vm); err != nil {
		return fmt.Errorf("failed to render map for unit %s: %w", unit.UnitCode, err)
	}
	return nil
}

func clusterColor(cluster int) string {
	if cluster < 0 {
		return "#555555"
	}
	return palette[cluster%len(palette)]
}

const mapTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body, #map { height: 100%; margin: 0; }
  .legend { background: white; padding: 6px 10px; border-radius: 4px; font: 12px sans-serif; }
</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], 11);
L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

var booths = {{.Booths}};
var centroids = {{.Centroids}};

booths.forEach(function (b) {
  var marker = L.circleMarker([b.lat, b.lon], {
    radius: b.selected ? 8 : 4,
    color: b.selected ? '#000000' : b.color,
    weight: b.selected ? 2 : 1,
    fillColor: b.color,
    fillOpacity: b.selected ? 0.95 : 0.6
  }).addTo(map);
  var label = '<b>' + b.name + '</b><br>Booth: ' + b.code + '<br>Cluster: ' + b.cluster;
  if (b.selected) {
    label += '<br>Selected (rank ' + b.rank + ')';
  }
  marker.bindPopup(label);
});

centroids.forEach(function (c) {
  L.marker([c.lat, c.lon], {
    icon: L.divIcon({
      className: '',
      html: '<div style="width:14px;height:14px;border:2px solid #000;background:#fff;transform:rotate(45deg);"></div>'
    })
  }).addTo(map).bindPopup('Cluster ' + c.cluster + ' centroid');
});

var legend = L.control({position: 'bottomright'});
legend.onAdd = function () {
  var div = L.DomUtil.create('div', 'legend');
  div.innerHTML = '{{.Title}}<br>' + booths.length + ' booths, ' + centroids.length + ' clusters';
  return div;
};
legend.addTo(map);
</script>
</body>
</html>
`
