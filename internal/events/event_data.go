package events

import "github.com/aristath/boothmap/internal/domain"

// RunStartedData contains data for RunStarted events
type RunStartedData struct {
	RunID      string `json:"run_id"`
	State      string `json:"state"`
	Kind       string `json:"kind"`
	TotalUnits int    `json:"total_units"`
}

// RunProgressData contains data for RunProgress events.
// Current/Total are completed units out of requested units.
type RunProgressData struct {
	RunID    string `json:"run_id"`
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	UnitName string `json:"unit_name"`
}

// RunCompletedData contains data for RunCompleted events
type RunCompletedData struct {
	RunID  string             `json:"run_id"`
	Totals domain.BatchTotals `json:"totals"`
}

// RunFailedData contains data for RunFailed events
type RunFailedData struct {
	RunID string `json:"run_id"`
	Error string `json:"error"`
}

// RunCancelledData contains data for RunCancelled events. Totals cover the
// units that finished before the cancellation.
type RunCancelledData struct {
	RunID  string             `json:"run_id"`
	Totals domain.BatchTotals `json:"totals"`
}
