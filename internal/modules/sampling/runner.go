package sampling

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/aristath/boothmap/internal/domain"
)

// Runner executes a batch of independent units over a bounded worker pool.
// Cancellation is cooperative and checked at unit boundaries: units already
// finished stay in the result, the unit being cancelled is discarded.
type Runner struct {
	engine  *Engine
	workers int
	log     zerolog.Logger
}

// NewRunner creates a batch runner. workers bounds the number of units
// processed concurrently; values below 1 are treated as 1.
func NewRunner(engine *Engine, workers int, log zerolog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		engine:  engine,
		workers: workers,
		log:     log.With().Str("service", "batch_runner").Logger(),
	}
}

// Run processes every unit and returns the merged tables. progress may be nil.
// On cancellation the partial result is returned along with ctx.Err().
func (r *Runner) Run(ctx context.Context, units []domain.Unit, progress ProgressFunc) (*BatchResult, error) {
	agg := NewAggregator()
	total := len(units)

	jobs := make(chan domain.Unit)
	var done int64
	var wg sync.WaitGroup

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range jobs {
				// Check cancellation between units, never mid-unit
				if ctx.Err() != nil {
					return
				}
				if unit.MissingGeometry {
					agg.AddFailure(unit, ReasonNoGeometry)
				} else {
					agg.AddUnit(r.engine.ProcessUnit(unit))
				}

				n := int(atomic.AddInt64(&done, 1))
				if progress != nil {
					progress(n, total, unit.Name)
				}
			}
		}()
	}

feed:
	for _, unit := range units {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- unit:
		}
	}
	close(jobs)
	wg.Wait()

	result := agg.Result()

	if err := ctx.Err(); err != nil {
		r.log.Warn().
			Int("processed", result.Totals.UnitsProcessed).
			Int("total", total).
			Msg("batch cancelled")
		return result, err
	}

	r.log.Info().
		Int("units", result.Totals.UnitsProcessed).
		Int("completed", result.Totals.UnitsCompleted).
		Int("selected", result.Totals.BoothsSelected).
		Msg("batch finished")

	return result, nil
}
