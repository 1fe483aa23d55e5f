package runs

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/boothmap/internal/domain"
)

// Repository persists runs and their result tables in SQLite
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a runs repository and ensures the schema exists
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	r := &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			state           TEXT NOT NULL,
			kind            TEXT NOT NULL,
			samples         INTEGER NOT NULL,
			status          TEXT NOT NULL,
			error           TEXT NOT NULL DEFAULT '',
			units_total     INTEGER NOT NULL DEFAULT 0,
			units_done      INTEGER NOT NULL DEFAULT 0,
			units_processed INTEGER NOT NULL DEFAULT 0,
			units_completed INTEGER NOT NULL DEFAULT 0,
			booths_scanned  INTEGER NOT NULL DEFAULT 0,
			booths_selected INTEGER NOT NULL DEFAULT 0,
			created_at      INTEGER NOT NULL,
			started_at      INTEGER,
			finished_at     INTEGER
		);

		CREATE TABLE IF NOT EXISTS run_summary (
			run_id            TEXT NOT NULL,
			unit_code         TEXT NOT NULL,
			unit_name         TEXT NOT NULL,
			total_booths      INTEGER NOT NULL,
			selected_booths   INTEGER NOT NULL,
			status            TEXT NOT NULL,
			reason            TEXT NOT NULL,
			samples_requested INTEGER NOT NULL,
			PRIMARY KEY (run_id, unit_code)
		);

		CREATE TABLE IF NOT EXISTS run_selections (
			run_id        TEXT NOT NULL,
			state         TEXT NOT NULL,
			district      TEXT NOT NULL,
			district_name TEXT NOT NULL,
			pc            TEXT NOT NULL,
			pc_name       TEXT NOT NULL,
			ac            TEXT NOT NULL,
			ac_name       TEXT NOT NULL,
			booth         TEXT NOT NULL,
			booth_name    TEXT NOT NULL,
			cluster       INTEGER NOT NULL,
			latitude      REAL NOT NULL,
			longitude     REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_run_selections_run ON run_selections(run_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs schema: %w", err)
	}
	return nil
}

// SaveRun inserts or updates a run row
func (r *Repository) SaveRun(run *Run) error {
	var started, finished *int64
	if run.StartedAt != nil {
		v := run.StartedAt.Unix()
		started = &v
	}
	if run.FinishedAt != nil {
		v := run.FinishedAt.Unix()
		finished = &v
	}

	_, err := r.db.Exec(`
		INSERT INTO runs (
			id, state, kind, samples, status, error,
			units_total, units_done, units_processed, units_completed,
			booths_scanned, booths_selected,
			created_at, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status          = excluded.status,
			error           = excluded.error,
			units_total     = excluded.units_total,
			units_done      = excluded.units_done,
			units_processed = excluded.units_processed,
			units_completed = excluded.units_completed,
			booths_scanned  = excluded.booths_scanned,
			booths_selected = excluded.booths_selected,
			started_at      = excluded.started_at,
			finished_at     = excluded.finished_at
	`,
		run.ID, run.State, string(run.Kind), run.SamplesPerUnit, string(run.Status), run.Error,
		run.UnitsTotal, run.UnitsDone, run.Totals.UnitsProcessed, run.Totals.UnitsCompleted,
		run.Totals.BoothsScanned, run.Totals.BoothsSelected,
		run.CreatedAt.Unix(), started, finished,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun loads one run row. Returns nil when the run is unknown.
func (r *Repository) GetRun(id string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT id, state, kind, samples, status, error,
		       units_total, units_done, units_processed, units_completed,
		       booths_scanned, booths_selected,
		       created_at, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first
func (r *Repository) ListRuns() ([]*Run, error) {
	rows, err := r.db.Query(`
		SELECT id, state, kind, samples, status, error,
		       units_total, units_done, units_processed, units_completed,
		       booths_scanned, booths_selected,
		       created_at, started_at, finished_at
		FROM runs ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan run row")
			continue
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var kind, status string
	var created int64
	var started, finished sql.NullInt64

	err := row.Scan(
		&run.ID, &run.State, &kind, &run.SamplesPerUnit, &status, &run.Error,
		&run.UnitsTotal, &run.UnitsDone, &run.Totals.UnitsProcessed, &run.Totals.UnitsCompleted,
		&run.Totals.BoothsScanned, &run.Totals.BoothsSelected,
		&created, &started, &finished,
	)
	if err != nil {
		return nil, err
	}

	run.Kind = domain.UnitKind(kind)
	run.Status = Status(status)
	run.CreatedAt = time.Unix(created, 0).UTC()
	if started.Valid {
		t := time.Unix(started.Int64, 0).UTC()
		run.StartedAt = &t
	}
	if finished.Valid {
		t := time.Unix(finished.Int64, 0).UTC()
		run.FinishedAt = &t
	}
	return &run, nil
}

// SaveResults writes the summary and selection tables for a run in one
// transaction, replacing any previous rows for the same run.
func (r *Repository) SaveResults(runID string, summary []domain.SummaryRecord, selections []domain.SelectionRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin results transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM run_summary WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to clear summary rows: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM run_selections WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to clear selection rows: %w", err)
	}

	for _, s := range summary {
		_, err := tx.Exec(`
			INSERT INTO run_summary (
				run_id, unit_code, unit_name, total_booths, selected_booths,
				status, reason, samples_requested
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, s.UnitCode, s.UnitName, s.TotalBooths, s.SelectedBooths,
			string(s.Status), s.Reason, s.SamplesRequested)
		if err != nil {
			return fmt.Errorf("failed to insert summary row for unit %s: %w", s.UnitCode, err)
		}
	}

	for _, sel := range selections {
		_, err := tx.Exec(`
			INSERT INTO run_selections (
				run_id, state, district, district_name, pc, pc_name,
				ac, ac_name, booth, booth_name, cluster, latitude, longitude
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, sel.State, sel.District, sel.DistrictName, sel.PC, sel.PCName,
			sel.AC, sel.ACName, sel.Booth, sel.BoothName, sel.Cluster,
			sel.Latitude, sel.Longitude)
		if err != nil {
			return fmt.Errorf("failed to insert selection row for booth %s: %w", sel.Booth, err)
		}
	}

	return tx.Commit()
}

// GetSummary returns a run's summary table ordered by unit code
func (r *Repository) GetSummary(runID string) ([]domain.SummaryRecord, error) {
	rows, err := r.db.Query(`
		SELECT unit_code, unit_name, total_booths, selected_booths,
		       status, reason, samples_requested
		FROM run_summary WHERE run_id = ? ORDER BY unit_code
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []domain.SummaryRecord
	for rows.Next() {
		var rec domain.SummaryRecord
		var status string
		if err := rows.Scan(&rec.UnitCode, &rec.UnitName, &rec.TotalBooths,
			&rec.SelectedBooths, &status, &rec.Reason, &rec.SamplesRequested); err != nil {
			return nil, err
		}
		rec.Status = domain.CompletionStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetSelections returns a run's selection table in insertion order
func (r *Repository) GetSelections(runID string) ([]domain.SelectionRecord, error) {
	rows, err := r.db.Query(`
		SELECT state, district, district_name, pc, pc_name,
		       ac, ac_name, booth, booth_name, cluster, latitude, longitude
		FROM run_selections WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get selections for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []domain.SelectionRecord
	for rows.Next() {
		var rec domain.SelectionRecord
		if err := rows.Scan(&rec.State, &rec.District, &rec.DistrictName,
			&rec.PC, &rec.PCName, &rec.AC, &rec.ACName, &rec.Booth,
			&rec.BoothName, &rec.Cluster, &rec.Latitude, &rec.Longitude); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteOlderThan removes runs created before the cutoff, along with their
// result rows. Returns the IDs of the deleted runs so callers can remove
// associated files.
func (r *Repository) DeleteOlderThan(cutoff time.Time) ([]string, error) {
	rows, err := r.db.Query("SELECT id FROM runs WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to find expired runs: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin expiry transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM run_selections WHERE run_id = ?", id); err != nil {
			return nil, err
		}
		if _, err := tx.Exec("DELETE FROM run_summary WHERE run_id = ?", id); err != nil {
			return nil, err
		}
		if _, err := tx.Exec("DELETE FROM runs WHERE id = ?", id); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	r.log.Info().Int("count", len(ids)).Time("cutoff", cutoff).Msg("expired old runs")
	return ids, nil
}
