package sampling

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs/zerolog"

	"github.com/aristath/boothmap/internal/domain"
)

func testUnits(n int) []domain.Unit {
	units := make([]domain.Unit, 0, n)
	for i := 0; i < n; i++ {
		units = append(units, gridUnit(fmt.Sprintf("%03d", i+1), 40, 100))
	}
	return units
}

func TestRunnerProcessesAllUnits(t *testing.T) {
	r := NewRunner(newTestEngine(), 4, zerolog.Nop())

	res, err := r.Run(context.Background(), testUnits(10), nil)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Totals.UnitsProcessed)
	assert.Len(t, res.Summary, 10)
	assert.Len(t, res.Units, 10)
}

func TestRunnerProgressEvents(t *testing.T) {
	r := NewRunner(newTestEngine(), 2, zerolog.Nop())

	var mu sync.Mutex
	var seen []int
	progress := func(done, total int, _ string) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 6, total)
		seen = append(seen, done)
	}

	_, err := r.Run(context.Background(), testUnits(6), progress)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 6)
	assert.Contains(t, seen, 6)
}

func TestRunnerDeterministicAcrossWorkerCounts(t *testing.T) {
	units := testUnits(8)

	serial, err := NewRunner(newTestEngine(), 1, zerolog.Nop()).Run(context.Background(), units, nil)
	require.NoError(t, err)

	parallel, err := NewRunner(newTestEngine(), 4, zerolog.Nop()).Run(context.Background(), units, nil)
	require.NoError(t, err)

	assert.Equal(t, serial.Summary, parallel.Summary)
	assert.Equal(t, serial.Selections, parallel.Selections)
	assert.Equal(t, serial.Totals, parallel.Totals)
}

func TestRunnerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r := NewRunner(newTestEngine(), 1, zerolog.Nop())

	units := testUnits(20)
	var once sync.Once
	progress := func(done, total int, _ string) {
		// Cancel after the third unit; remaining units must be discarded
		if done == 3 {
			once.Do(cancel)
		}
	}

	res, err := r.Run(ctx, units, progress)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)

	assert.GreaterOrEqual(t, res.Totals.UnitsProcessed, 3)
	assert.Less(t, res.Totals.UnitsProcessed, 20)
}

func TestRunnerCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(newTestEngine(), 2, zerolog.Nop())
	res, err := r.Run(ctx, testUnits(5), nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Totals.UnitsProcessed)
}

func TestRunnerMixedFailures(t *testing.T) {
	units := testUnits(3)
	units[1].Booths = nil // empty unit still yields a summary row

	res, err := NewRunner(newTestEngine(), 2, zerolog.Nop()).Run(context.Background(), units, nil)
	require.NoError(t, err)

	require.Len(t, res.Summary, 3)
	assert.Equal(t, ReasonNoBooths, res.Summary[1].Reason)
	assert.Equal(t, domain.StatusNotCompleted, res.Summary[1].Status)
}

func TestRunnerMissingGeometryUnit(t *testing.T) {
	units := testUnits(3)
	units[1].Booths = nil
	units[1].MissingGeometry = true

	res, err := NewRunner(newTestEngine(), 2, zerolog.Nop()).Run(context.Background(), units, nil)
	require.NoError(t, err)

	// The degenerate unit keeps its summary row with an explicit reason
	require.Len(t, res.Summary, 3)
	assert.Equal(t, ReasonNoGeometry, res.Summary[1].Reason)
	assert.Equal(t, domain.StatusNotCompleted, res.Summary[1].Status)
	assert.Zero(t, res.Summary[1].SelectedBooths)
	assert.Equal(t, 3, res.Totals.UnitsProcessed)
}
