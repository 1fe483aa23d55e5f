package sampling

import (
	"sort"

	"github.com/aristath/boothmap/internal/domain"
	"github.com/aristath/boothmap/pkg/geo"
)

// Distance policy for selecting booths around a cluster centroid.
// The primary band prefers booths that are reachable but not on top of the
// centroid; the extended band fills remaining slots without ever searching
// beyond 3 km.
const (
	PrimaryMinM  = 500.0
	PrimaryMaxM  = 2000.0
	ExtendedMaxM = 3000.0

	// BoothsPerCluster is the selection quota per cluster
	BoothsPerCluster = 2
)

type candidate struct {
	index int // index into the members slice
	dist  float64
}

// SelectForCluster picks up to two representative booths for one cluster,
// ranked by ascending distance from the centroid.
//
// Pass 1 takes booths in the primary band [500m, 2000m]; pass 2 fills any
// remaining slots from the extended band [0m, 3000m]. Equidistant candidates
// are ordered by booth code so runs are deterministic.
func SelectForCluster(d geo.Distancer, centroid geo.Point, members []domain.Booth, clusterID int) []domain.SelectionResult {
	if len(members) == 0 {
		return nil
	}

	dists := make([]float64, len(members))
	for i, b := range members {
		dists[i] = d.Distance(centroid, geo.Point{Lat: b.Latitude, Lon: b.Longitude})
	}

	taken := make(map[int]bool, BoothsPerCluster)
	selected := make([]domain.SelectionResult, 0, BoothsPerCluster)

	appendBand := func(minM, maxM float64) {
		var band []candidate
		for i := range members {
			if taken[i] {
				continue
			}
			if dists[i] >= minM && dists[i] <= maxM {
				band = append(band, candidate{index: i, dist: dists[i]})
			}
		}
		sort.Slice(band, func(a, b int) bool {
			if band[a].dist != band[b].dist {
				return band[a].dist < band[b].dist
			}
			return members[band[a].index].Code < members[band[b].index].Code
		})
		for _, c := range band {
			if len(selected) >= BoothsPerCluster {
				return
			}
			taken[c.index] = true
			selected = append(selected, domain.SelectionResult{
				Booth:   members[c.index],
				Cluster: clusterID,
				DistM:   c.dist,
			})
		}
	}

	appendBand(PrimaryMinM, PrimaryMaxM)
	if len(selected) < BoothsPerCluster {
		appendBand(0, ExtendedMaxM)
	}

	// Ranks follow ascending distance across both passes
	sort.Slice(selected, func(a, b int) bool {
		if selected[a].DistM != selected[b].DistM {
			return selected[a].DistM < selected[b].DistM
		}
		return selected[a].Booth.Code < selected[b].Booth.Code
	})
	for i := range selected {
		selected[i].Rank = i + 1
	}

	return selected
}
