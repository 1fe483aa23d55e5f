// Package clustering partitions a constituency's booth locations into
// spatially balanced groups using k-means.
package clustering

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/boothmap/pkg/geo"
)

// ErrNoPoints is returned when a unit has no booths to partition
var ErrNoPoints = errors.New("clustering: no points to partition")

// DefaultSeed makes repeated runs reproducible for identical inputs
const DefaultSeed int64 = 1

// DefaultMaxIterations bounds the Lloyd's refinement loop
const DefaultMaxIterations = 100

// SamplesPerCluster converts a samples-requested count into a cluster count:
// every 25 requested samples become one cluster.
const SamplesPerCluster = 25

// Result holds a completed partition of one unit's booths
type Result struct {
	// Assignments maps point index -> cluster id (0-based, dense)
	Assignments []int
	// Centroids holds one geographic centroid per cluster
	Centroids []geo.Point
}

// Partitioner fits a spatial partition over a set of points. Implementations
// must be deterministic for identical inputs.
type Partitioner interface {
	Fit(points []geo.Point, k int) (*Result, error)
}

// ClusterCount derives the number of clusters for a unit:
// max(1, round(samples/25)), capped at the unit's booth count.
func ClusterCount(samplesRequested, boothCount int) int {
	k := int(math.Round(float64(samplesRequested) / float64(SamplesPerCluster)))
	if k < 1 {
		k = 1
	}
	if k > boothCount {
		k = boothCount
	}
	return k
}

// KMeans is a Lloyd's-style k-means partitioner operating on a local planar
// projection of the input coordinates, seeded for reproducibility.
type KMeans struct {
	Seed    int64
	MaxIter int
}

// NewKMeans creates a partitioner with the default fixed seed
func NewKMeans() *KMeans {
	return &KMeans{Seed: DefaultSeed, MaxIter: DefaultMaxIterations}
}

// Fit partitions points into k clusters and returns assignments plus one
// geographic centroid per cluster. If k exceeds the point count it is reduced
// to the point count (degenerate one-point clusters).
func (km *KMeans) Fit(points []geo.Point, k int) (*Result, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	if k < 1 {
		return nil, fmt.Errorf("clustering: invalid cluster count %d", k)
	}
	if k > len(points) {
		k = len(points)
	}

	// Project onto a local plane so squared distances are metric
	origin := meanPoint(points)
	coords := make([][2]float64, len(points))
	for i, p := range points {
		x, y := geo.ProjectLocal(origin, p)
		coords[i] = [2]float64{x, y}
	}

	rng := rand.New(rand.NewSource(km.Seed))
	centers := seedCenters(coords, k, rng)

	assignments := make([]int, len(coords))
	maxIter := km.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := assignAll(coords, centers, assignments)
		recomputeCenters(coords, assignments, centers)
		if !changed && iter > 0 {
			break
		}
	}

	// Convert planar centers back to geographic coordinates
	centroids := make([]geo.Point, k)
	latRad := origin.Lat * math.Pi / 180
	for c, ctr := range centers {
		centroids[c] = geo.Point{
			Lat: origin.Lat + ctr[1]/geo.EarthRadiusM*180/math.Pi,
			Lon: origin.Lon + ctr[0]/(geo.EarthRadiusM*math.Cos(latRad))*180/math.Pi,
		}
	}

	return &Result{Assignments: assignments, Centroids: centroids}, nil
}

// meanPoint returns the arithmetic mean coordinate, used as projection origin
func meanPoint(points []geo.Point) geo.Point {
	lats := make([]float64, len(points))
	lons := make([]float64, len(points))
	for i, p := range points {
		lats[i] = p.Lat
		lons[i] = p.Lon
	}
	return geo.Point{Lat: stat.Mean(lats, nil), Lon: stat.Mean(lons, nil)}
}

// seedCenters picks initial centers with a k-means++-style farthest-point
// heuristic driven by the seeded PRNG.
func seedCenters(coords [][2]float64, k int, rng *rand.Rand) [][2]float64 {
	centers := make([][2]float64, 0, k)
	centers = append(centers, coords[rng.Intn(len(coords))])

	dist := make([]float64, len(coords))
	for len(centers) < k {
		var total float64
		for i, c := range coords {
			d := sqDistToNearest(c, centers)
			dist[i] = d
			total += d
		}
		if total == 0 {
			// All remaining points coincide with a center; duplicate one
			centers = append(centers, coords[rng.Intn(len(coords))])
			continue
		}
		target := rng.Float64() * total
		idx := 0
		for i, d := range dist {
			target -= d
			if target <= 0 {
				idx = i
				break
			}
		}
		centers = append(centers, coords[idx])
	}
	return centers
}

func sqDistToNearest(c [2]float64, centers [][2]float64) float64 {
	best := math.Inf(1)
	for _, ctr := range centers {
		d := floats.Distance(c[:], ctr[:], 2)
		if d*d < best {
			best = d * d
		}
	}
	return best
}

// assignAll assigns every point to its nearest center, returning whether any
// assignment changed. Ties go to the lower cluster id, keeping runs stable.
func assignAll(coords [][2]float64, centers [][2]float64, assignments []int) bool {
	changed := false
	for i, c := range coords {
		best := 0
		bestDist := math.Inf(1)
		for j, ctr := range centers {
			d := floats.Distance(c[:], ctr[:], 2)
			if d < bestDist {
				bestDist = d
				best = j
			}
		}
		if assignments[i] != best {
			assignments[i] = best
			changed = true
		}
	}
	return changed
}

// recomputeCenters moves each center to the mean of its members. An emptied
// cluster keeps its previous center rather than collapsing.
func recomputeCenters(coords [][2]float64, assignments []int, centers [][2]float64) {
	counts := make([]int, len(centers))
	sums := make([][2]float64, len(centers))
	for i, a := range assignments {
		counts[a]++
		sums[a][0] += coords[i][0]
		sums[a][1] += coords[i][1]
	}
	for c := range centers {
		if counts[c] == 0 {
			continue
		}
		centers[c][0] = sums[c][0] / float64(counts[c])
		centers[c][1] = sums[c][1] / float64(counts[c])
	}
}
