// Package handlers provides the HTTP handlers for states, units and runs.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/boothmap/internal/domain"
	"github.com/aristath/boothmap/internal/modules/export"
	"github.com/aristath/boothmap/internal/modules/geodata"
	"github.com/aristath/boothmap/internal/modules/maps"
	"github.com/aristath/boothmap/internal/modules/runs"
)

// GeodataLister exposes the state and constituency catalogs
type GeodataLister interface {
	ListStates(ctx context.Context) ([]string, error)
	ListUnits(ctx context.Context, state string, kind domain.UnitKind) ([]geodata.UnitRef, error)
}

// Handler provides HTTP handlers for the sampling API
type Handler struct {
	service *runs.Service
	lister  GeodataLister
	log     zerolog.Logger
}

// NewHandler creates a runs handler
func NewHandler(service *runs.Service, lister GeodataLister, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		lister:  lister,
		log:     log.With().Str("handler", "runs").Logger(),
	}
}

// RegisterRoutes registers the sampling API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/states", h.HandleListStates)
	r.Get("/units/{state}/{kind}", h.HandleListUnits)

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", h.HandleCreateRun)
		r.Get("/", h.HandleListRuns)
		r.Get("/{runID}", h.HandleGetRun)
		r.Delete("/{runID}", h.HandleCancelRun)
		r.Get("/{runID}/summary", h.HandleGetSummary)
		r.Get("/{runID}/booths", h.HandleGetSelections)
		r.Get("/{runID}/summary.csv", h.HandleSummaryCSV)
		r.Get("/{runID}/booths.csv", h.HandleSelectionsCSV)
		r.Get("/{runID}/maps", h.HandleListMaps)
		r.Get("/{runID}/maps/{mapFile}", h.HandleGetMap)
		r.Get("/{runID}/maps.zip", h.HandleMapsZip)
	})
}

// HandleListStates handles GET /api/states
func (h *Handler) HandleListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.lister.ListStates(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list states")
		http.Error(w, "Failed to list states", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]any{"states": states})
}

// HandleListUnits handles GET /api/units/{state}/{kind}
func (h *Handler) HandleListUnits(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")
	kind := domain.UnitKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		http.Error(w, "kind must be 'ac' or 'pc'", http.StatusBadRequest)
		return
	}

	units, err := h.lister.ListUnits(r.Context(), state, kind)
	if err != nil {
		h.log.Error().Err(err).Str("state", state).Msg("Failed to list units")
		http.Error(w, "Failed to list units", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]any{"units": units})
}

// HandleCreateRun handles POST /api/runs
func (h *Handler) HandleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req runs.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	run, err := h.service.Create(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(run); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode run response")
	}
}

// HandleListRuns handles GET /api/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]any{"runs": list})
}

// HandleGetRun handles GET /api/runs/{runID}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}
	h.writeJSON(w, run)
}

// HandleCancelRun handles DELETE /api/runs/{runID}
func (h *Handler) HandleCancelRun(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}

	if err := h.service.Cancel(run.ID); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	h.writeJSON(w, map[string]any{"run_id": run.ID, "cancelling": true})
}

// HandleGetSummary handles GET /api/runs/{runID}/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}

	records, err := h.service.Summary(run.ID)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to load summary")
		http.Error(w, "Failed to load summary", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]any{"summary": records, "totals": run.Totals})
}

// HandleGetSelections handles GET /api/runs/{runID}/booths
func (h *Handler) HandleGetSelections(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}

	records, err := h.service.Selections(run.ID)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to load selections")
		http.Error(w, "Failed to load selections", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]any{"booths": records})
}

// HandleSummaryCSV handles GET /api/runs/{runID}/summary.csv
func (h *Handler) HandleSummaryCSV(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}

	records, err := h.service.Summary(run.ID)
	if err != nil {
		http.Error(w, "Failed to load summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=summary.csv`)
	if err := export.WriteSummaryCSV(w, run.Kind, records); err != nil {
		h.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to write summary CSV")
	}
}

// HandleSelectionsCSV handles GET /api/runs/{runID}/booths.csv
func (h *Handler) HandleSelectionsCSV(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}

	records, err := h.service.Selections(run.ID)
	if err != nil {
		http.Error(w, "Failed to load selections", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=selected_booths.csv`)
	if err := export.WriteSelectionsCSV(w, records); err != nil {
		h.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to write selections CSV")
	}
}

// mapEntry describes one rendered unit map
type mapEntry struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// HandleListMaps handles GET /api/runs/{runID}/maps
func (h *Handler) HandleListMaps(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}

	records, err := h.service.Summary(run.ID)
	if err != nil {
		http.Error(w, "Failed to load summary", http.StatusInternalServerError)
		return
	}

	dir := h.service.MapsDir(run.ID)
	entries := make([]mapEntry, 0)
	for _, rec := range records {
		if rec.SelectedBooths == 0 {
			continue
		}
		name := maps.FileName(rec.UnitCode, rec.UnitName)
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			continue
		}
		entries = append(entries, mapEntry{Code: rec.UnitCode, Name: rec.UnitName, Filename: name})
	}
	h.writeJSON(w, map[string]any{"maps": entries})
}

// HandleGetMap handles GET /api/runs/{runID}/maps/{mapFile}
func (h *Handler) HandleGetMap(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}

	name := chi.URLParam(r, "mapFile")
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) || !strings.HasSuffix(name, ".html") {
		http.Error(w, "Invalid map name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.service.MapsDir(run.ID), name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "Map not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, path)
}

// HandleMapsZip handles GET /api/runs/{runID}/maps.zip
func (h *Handler) HandleMapsZip(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}

	dir := h.service.MapsDir(run.ID)
	if _, err := os.Stat(dir); err != nil {
		http.Error(w, "No maps available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=maps_%s.zip`, run.ID))
	if err := export.WriteMapsZip(w, dir); err != nil {
		h.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to write maps archive")
	}
}

// lookupRun resolves {runID} and writes the 404 itself when unknown
func (h *Handler) lookupRun(w http.ResponseWriter, r *http.Request) *runs.Run {
	id := chi.URLParam(r, "runID")
	run, err := h.service.Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to load run")
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		return nil
	}
	if run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return nil
	}
	return run
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
