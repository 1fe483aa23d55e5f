package sampling

import (
	"sort"
	"sync"

	"github.com/aristath/boothmap/internal/domain"
)

// Aggregator merges per-unit outputs into the two canonical tables and the
// batch totals. It is the only point of shared mutable state in a batch:
// workers append under a mutex, readers get sorted copies.
type Aggregator struct {
	mu         sync.Mutex
	summary    []domain.SummaryRecord
	selections []domain.SelectionRecord
	units      []*UnitResult
	totals     domain.BatchTotals
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AddUnit records a processed unit's summary, selections and totals
func (a *Aggregator) AddUnit(res *UnitResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.units = append(a.units, res)
	a.summary = append(a.summary, res.Summary)

	for _, sel := range res.Selections {
		b := sel.Booth
		a.selections = append(a.selections, domain.SelectionRecord{
			State:        res.State,
			District:     b.District,
			DistrictName: b.DistrictName,
			PC:           b.PC,
			PCName:       b.PCName,
			AC:           b.AC,
			ACName:       b.ACName,
			Booth:        b.Code,
			BoothName:    b.Name,
			Cluster:      sel.Cluster,
			Latitude:     b.Latitude,
			Longitude:    b.Longitude,
		})
	}

	a.totals.UnitsProcessed++
	a.totals.BoothsScanned += res.Summary.TotalBooths
	a.totals.BoothsSelected += len(res.Selections)
	if res.Completed() {
		a.totals.UnitsCompleted++
	}
}

// AddFailure records a unit that failed before the engine could run
// (missing geometry, load error). The unit still gets its summary row.
func (a *Aggregator) AddFailure(unit domain.Unit, reason string) {
	a.AddUnit(&UnitResult{
		UnitCode: unit.Code,
		UnitName: unit.Name,
		State:    unit.State,
		Kind:     unit.Kind,
		Summary: domain.SummaryRecord{
			UnitCode:         unit.Code,
			UnitName:         unit.Name,
			TotalBooths:      len(unit.Booths),
			SelectedBooths:   0,
			Status:           domain.StatusNotCompleted,
			Reason:           reason,
			SamplesRequested: unit.SamplesRequested,
		},
	})
}

// Result returns the merged tables, sorted by unit code so output is
// deterministic regardless of worker scheduling.
func (a *Aggregator) Result() *BatchResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	summary := make([]domain.SummaryRecord, len(a.summary))
	copy(summary, a.summary)
	sort.Slice(summary, func(i, j int) bool {
		return summary[i].UnitCode < summary[j].UnitCode
	})

	selections := make([]domain.SelectionRecord, len(a.selections))
	copy(selections, a.selections)
	sort.Slice(selections, func(i, j int) bool {
		if selections[i].AC != selections[j].AC {
			return selections[i].AC < selections[j].AC
		}
		if selections[i].PC != selections[j].PC {
			return selections[i].PC < selections[j].PC
		}
		if selections[i].Cluster != selections[j].Cluster {
			return selections[i].Cluster < selections[j].Cluster
		}
		return selections[i].Booth < selections[j].Booth
	})

	units := make([]*UnitResult, len(a.units))
	copy(units, a.units)
	sort.Slice(units, func(i, j int) bool {
		return units[i].UnitCode < units[j].UnitCode
	})

	return &BatchResult{
		Summary:    summary,
		Selections: selections,
		Totals:     a.totals,
		Units:      units,
	}
}
