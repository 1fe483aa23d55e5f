// Package runs manages sampling run lifecycle: creation, async execution,
// progress tracking, cancellation, persistence and expiry.
package runs

import (
	"fmt"
	"time"

	"github.com/aristath/boothmap/internal/domain"
)

// Status is the run state machine. Runs move
// pending -> loading -> running -> completed | failed | cancelled.
type Status string

const (
	StatusPending   Status = "pending"
	StatusLoading   Status = "loading"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is an end state
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Request is the payload for starting a run
type Request struct {
	State          string `json:"state"`
	Kind           string `json:"kind"`
	SamplesPerUnit int    `json:"samples_per_unit"`
}

// Validate checks the request fields
func (r Request) Validate() error {
	if r.State == "" {
		return fmt.Errorf("state is required")
	}
	if !domain.UnitKind(r.Kind).Valid() {
		return fmt.Errorf("kind must be %q or %q", domain.KindAC, domain.KindPC)
	}
	if r.SamplesPerUnit <= 0 {
		return fmt.Errorf("samples_per_unit must be positive")
	}
	return nil
}

// Run is one sampling batch over a state's constituencies
type Run struct {
	ID             string          `json:"run_id"`
	State          string          `json:"state"`
	Kind           domain.UnitKind `json:"kind"`
	SamplesPerUnit int             `json:"samples_per_unit"`
	Status         Status          `json:"status"`
	Error          string          `json:"error,omitempty"`

	UnitsTotal int    `json:"units_total"`
	UnitsDone  int    `json:"units_done"`
	LastUnit   string `json:"last_unit,omitempty"`

	Totals domain.BatchTotals `json:"totals"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Clone returns a copy safe to hand out while the run is still mutating
func (r *Run) Clone() *Run {
	c := *r
	return &c
}
