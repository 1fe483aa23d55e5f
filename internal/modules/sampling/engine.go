package sampling

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/boothmap/internal/domain"
	"github.com/aristath/boothmap/internal/modules/clustering"
	"github.com/aristath/boothmap/pkg/geo"
)

// Engine runs the per-unit sampling pipeline: partition the unit's booths
// into spatial clusters, select up to two booths per cluster around its
// centroid, and evaluate completeness.
type Engine struct {
	partitioner clustering.Partitioner
	dist        geo.Distancer
	log         zerolog.Logger
}

// NewEngine creates a sampling engine
func NewEngine(partitioner clustering.Partitioner, dist geo.Distancer, log zerolog.Logger) *Engine {
	return &Engine{
		partitioner: partitioner,
		dist:        dist,
		log:         log.With().Str("service", "sampling").Logger(),
	}
}

// ProcessUnit processes one constituency unit. Failures (empty booth set,
// clustering errors) are converted into a failed summary row rather than
// propagated, so a bad unit never aborts the batch.
func (e *Engine) ProcessUnit(unit domain.Unit) *UnitResult {
	res := &UnitResult{
		UnitCode: unit.Code,
		UnitName: unit.Name,
		State:    unit.State,
		Kind:     unit.Kind,
	}

	if len(unit.Booths) == 0 {
		res.Summary = e.failedSummary(unit, ReasonNoBooths)
		return res
	}

	k := clustering.ClusterCount(unit.SamplesRequested, len(unit.Booths))

	points := make([]geo.Point, len(unit.Booths))
	for i, b := range unit.Booths {
		points[i] = geo.Point{Lat: b.Latitude, Lon: b.Longitude}
	}

	fit, err := e.partitioner.Fit(points, k)
	if err != nil {
		e.log.Error().Err(err).Str("unit", unit.Code).Msg("clustering failed")
		res.Summary = e.failedSummary(unit, fmt.Sprintf("Clustering failed: %v", err))
		return res
	}

	res.ClustersCount = len(fit.Centroids)
	res.Centroids = fit.Centroids

	// Attach cluster ids to a working copy of the booths
	booths := make([]domain.Booth, len(unit.Booths))
	copy(booths, unit.Booths)
	members := make(map[int][]int, res.ClustersCount)
	for i := range booths {
		c := fit.Assignments[i]
		booths[i].Cluster = c
		booths[i].Selected = false
		booths[i].Rank = 0
		members[c] = append(members[c], i)
	}

	// Select per cluster and flag the chosen booths
	for c := 0; c < res.ClustersCount; c++ {
		clusterBooths := make([]domain.Booth, 0, len(members[c]))
		for _, idx := range members[c] {
			clusterBooths = append(clusterBooths, booths[idx])
		}

		picked := SelectForCluster(e.dist, fit.Centroids[c], clusterBooths, c)
		for _, sel := range picked {
			for _, idx := range members[c] {
				if booths[idx].Code == sel.Booth.Code && !booths[idx].Selected {
					booths[idx].Selected = true
					booths[idx].Rank = sel.Rank
					break
				}
			}
			res.Selections = append(res.Selections, sel)
		}
	}

	res.Booths = booths

	status, reason := EvaluateCompletion(res.ClustersCount, len(res.Selections))
	res.Summary = domain.SummaryRecord{
		UnitCode:         unit.Code,
		UnitName:         unit.Name,
		TotalBooths:      len(unit.Booths),
		SelectedBooths:   len(res.Selections),
		Status:           status,
		Reason:           reason,
		SamplesRequested: unit.SamplesRequested,
	}

	e.log.Debug().
		Str("unit", unit.Code).
		Int("booths", len(unit.Booths)).
		Int("clusters", res.ClustersCount).
		Int("selected", len(res.Selections)).
		Str("status", string(status)).
		Msg("unit processed")

	return res
}

func (e *Engine) failedSummary(unit domain.Unit, reason string) domain.SummaryRecord {
	return domain.SummaryRecord{
		UnitCode:         unit.Code,
		UnitName:         unit.Name,
		TotalBooths:      len(unit.Booths),
		SelectedBooths:   0,
		Status:           domain.StatusNotCompleted,
		Reason:           reason,
		SamplesRequested: unit.SamplesRequested,
	}
}
