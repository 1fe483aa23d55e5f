package sampling

import (
	"github.com/aristath/boothmap/internal/domain"
	"github.com/aristath/boothmap/pkg/geo"
)

// UnitResult is the outcome of processing a single constituency unit.
// Booths carries the full membership with cluster ids and selection flags so
// the map renderer can color-code clusters and mark selected booths.
type UnitResult struct {
	UnitCode      string
	UnitName      string
	State         string
	Kind          domain.UnitKind
	ClustersCount int
	Booths        []domain.Booth
	Centroids     []geo.Point
	Selections    []domain.SelectionResult
	Summary       domain.SummaryRecord
}

// Completed reports whether the unit reached its full selection quota
func (r *UnitResult) Completed() bool {
	return r.Summary.Status == domain.StatusCompleted
}

// ProgressFunc receives per-completed-unit progress (done out of total)
type ProgressFunc func(done, total int, unitName string)

// BatchResult is the merged output of a full batch run
type BatchResult struct {
	Summary    []domain.SummaryRecord
	Selections []domain.SelectionRecord
	Totals     domain.BatchTotals
	Units      []*UnitResult
}
