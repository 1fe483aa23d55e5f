package runs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/boothmap/internal/domain"
	"github.com/aristath/boothmap/internal/events"
	"github.com/aristath/boothmap/internal/modules/sampling"
)

// ErrNotRunning is returned when cancelling a run that has already finished
var ErrNotRunning = errors.New("runs: run is not in progress")

// UnitPreparer builds the per-unit engine inputs for a state
type UnitPreparer interface {
	PrepareUnits(ctx context.Context, state string, kind domain.UnitKind, samplesPerUnit int) ([]domain.Unit, error)
}

// BatchRunner executes a prepared batch of units
type BatchRunner interface {
	Run(ctx context.Context, units []domain.Unit, progress sampling.ProgressFunc) (*sampling.BatchResult, error)
}

// MapRenderer writes per-unit map documents into a directory
type MapRenderer interface {
	RenderAll(dir string, units []*sampling.UnitResult) ([]string, error)
}

// Service owns the run registry: each run carries its own context, so
// concurrent runs never share mutable state.
type Service struct {
	repo     *Repository
	preparer UnitPreparer
	runner   BatchRunner
	renderer MapRenderer
	bus      *events.Bus
	mapsRoot string
	log      zerolog.Logger

	mu     sync.Mutex
	active map[string]*activeRun
}

type activeRun struct {
	run    *Run
	cancel context.CancelFunc
}

// NewService creates the run service. renderer may be nil to disable map output.
func NewService(repo *Repository, preparer UnitPreparer, runner BatchRunner, renderer MapRenderer, bus *events.Bus, mapsRoot string, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		preparer: preparer,
		runner:   runner,
		renderer: renderer,
		bus:      bus,
		mapsRoot: mapsRoot,
		log:      log.With().Str("service", "runs").Logger(),
		active:   make(map[string]*activeRun),
	}
}

// Create validates the request, registers a new run and starts it asynchronously
func (s *Service) Create(req Request) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	run := &Run{
		ID:             uuid.NewString(),
		State:          req.State,
		Kind:           domain.UnitKind(req.Kind),
		SamplesPerUnit: req.SamplesPerUnit,
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.SaveRun(run); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.active[run.ID] = &activeRun{run: run, cancel: cancel}
	snapshot := run.Clone()
	s.mu.Unlock()

	s.log.Info().
		Str("run_id", run.ID).
		Str("state", run.State).
		Str("kind", string(run.Kind)).
		Int("samples_per_unit", run.SamplesPerUnit).
		Msg("run accepted")

	go s.execute(ctx, run.ID)
	return snapshot, nil
}

// Get returns a snapshot of a run, from memory while active, else from SQLite
func (s *Service) Get(id string) (*Run, error) {
	s.mu.Lock()
	if ar, ok := s.active[id]; ok {
		snapshot := ar.run.Clone()
		s.mu.Unlock()
		return snapshot, nil
	}
	s.mu.Unlock()
	return s.repo.GetRun(id)
}

// List returns all runs, with in-flight runs reflecting live progress
func (s *Service) List() ([]*Run, error) {
	stored, err := s.repo.ListRuns()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, run := range stored {
		if ar, ok := s.active[run.ID]; ok {
			stored[i] = ar.run.Clone()
		}
	}
	return stored, nil
}

// Cancel requests cooperative cancellation of an in-flight run
func (s *Service) Cancel(id string) error {
	s.mu.Lock()
	ar, ok := s.active[id]
	s.mu.Unlock()
	if !ok {
		return ErrNotRunning
	}
	ar.cancel()
	return nil
}

// Summary returns a run's persisted summary table
func (s *Service) Summary(id string) ([]domain.SummaryRecord, error) {
	return s.repo.GetSummary(id)
}

// Selections returns a run's persisted selection table
func (s *Service) Selections(id string) ([]domain.SelectionRecord, error) {
	return s.repo.GetSelections(id)
}

// MapsDir returns the directory holding a run's rendered maps
func (s *Service) MapsDir(id string) string {
	return filepath.Join(s.mapsRoot, id)
}

// Expire deletes runs older than ttl along with their map files
func (s *Service) Expire(ttl time.Duration) (int, error) {
	ids, err := s.repo.DeleteOlderThan(time.Now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := os.RemoveAll(s.MapsDir(id)); err != nil {
			s.log.Warn().Err(err).Str("run_id", id).Msg("failed to remove expired map files")
		}
	}
	return len(ids), nil
}

func (s *Service) execute(ctx context.Context, id string) {
	s.transition(id, func(run *Run) {
		run.Status = StatusLoading
	})

	run, _ := s.Get(id)
	units, err := s.preparer.PrepareUnits(ctx, run.State, run.Kind, run.SamplesPerUnit)
	if err != nil {
		s.fail(id, fmt.Errorf("failed to load geometry: %w", err))
		return
	}

	now := time.Now().UTC()
	s.transition(id, func(run *Run) {
		run.Status = StatusRunning
		run.UnitsTotal = len(units)
		run.StartedAt = &now
	})

	s.bus.Emit(events.RunStarted, "runs", events.RunStartedData{
		RunID:      id,
		State:      run.State,
		Kind:       string(run.Kind),
		TotalUnits: len(units),
	})

	progress := func(done, total int, unitName string) {
		s.mu.Lock()
		if ar, ok := s.active[id]; ok {
			ar.run.UnitsDone = done
			ar.run.LastUnit = unitName
		}
		s.mu.Unlock()

		s.bus.Emit(events.RunProgress, "runs", events.RunProgressData{
			RunID:    id,
			Current:  done,
			Total:    total,
			UnitName: unitName,
		})
	}

	result, runErr := s.runner.Run(ctx, units, progress)

	// Finished units survive cancellation, so the partial tables are kept
	if result != nil {
		if err := s.repo.SaveResults(id, result.Summary, result.Selections); err != nil {
			s.log.Error().Err(err).Str("run_id", id).Msg("failed to persist run results")
		}
		if runErr == nil {
			s.renderMaps(id, result.Units)
		}
	}

	finished := time.Now().UTC()
	switch {
	case runErr != nil && errors.Is(runErr, context.Canceled):
		s.transition(id, func(run *Run) {
			run.Status = StatusCancelled
			run.FinishedAt = &finished
			if result != nil {
				run.Totals = result.Totals
			}
		})
		var totals domain.BatchTotals
		if result != nil {
			totals = result.Totals
		}
		s.bus.Emit(events.RunCancelled, "runs", events.RunCancelledData{RunID: id, Totals: totals})
	case runErr != nil:
		s.fail(id, runErr)
		return
	default:
		s.transition(id, func(run *Run) {
			run.Status = StatusCompleted
			run.FinishedAt = &finished
			run.Totals = result.Totals
		})
		s.bus.Emit(events.RunCompleted, "runs", events.RunCompletedData{
			RunID:  id,
			Totals: result.Totals,
		})
	}

	s.release(id)
}

func (s *Service) renderMaps(id string, units []*sampling.UnitResult) {
	if s.renderer == nil {
		return
	}
	files, err := s.renderer.RenderAll(s.MapsDir(id), units)
	if err != nil {
		s.log.Warn().Err(err).Str("run_id", id).Msg("map rendering failed")
		return
	}
	s.log.Info().Str("run_id", id).Int("maps", len(files)).Msg("rendered unit maps")
}

func (s *Service) fail(id string, err error) {
	finished := time.Now().UTC()
	s.transition(id, func(run *Run) {
		run.Status = StatusFailed
		run.Error = err.Error()
		run.FinishedAt = &finished
	})
	s.bus.Emit(events.RunFailed, "runs", events.RunFailedData{RunID: id, Error: err.Error()})
	s.log.Error().Err(err).Str("run_id", id).Msg("run failed")
	s.release(id)
}

// transition mutates the in-memory run under the lock and persists the row
func (s *Service) transition(id string, mutate func(run *Run)) {
	s.mu.Lock()
	ar, ok := s.active[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	mutate(ar.run)
	snapshot := ar.run.Clone()
	s.mu.Unlock()

	if err := s.repo.SaveRun(snapshot); err != nil {
		s.log.Error().Err(err).Str("run_id", id).Msg("failed to persist run state")
	}
}

func (s *Service) release(id string) {
	s.mu.Lock()
	if ar, ok := s.active[id]; ok {
		// Persist final progress counters before dropping the live entry
		snapshot := ar.run.Clone()
		delete(s.active, id)
		s.mu.Unlock()
		if err := s.repo.SaveRun(snapshot); err != nil {
			s.log.Error().Err(err).Str("run_id", id).Msg("failed to persist final run state")
		}
		ar.cancel()
		return
	}
	s.mu.Unlock()
}
