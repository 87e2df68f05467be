// Package api exposes the job service over HTTP
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ErikING-Chile/fast-check/pkg/diagnostics"
	"github.com/ErikING-Chile/fast-check/pkg/export"
	"github.com/ErikING-Chile/fast-check/pkg/jobs"
	"github.com/ErikING-Chile/fast-check/pkg/models"
	"github.com/ErikING-Chile/fast-check/pkg/packs"
	"github.com/ErikING-Chile/fast-check/pkg/store"
)

// Handler handles job service API requests
type Handler struct {
	controller *jobs.Controller
	store      store.Store
	packs      *packs.Library
}

// NewHandler creates a new API handler
func NewHandler(controller *jobs.Controller, s store.Store, library *packs.Library) *Handler {
	return &Handler{
		controller: controller,
		store:      s,
		packs:      library,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Job routes
	r.HandleFunc("/jobs", h.SubmitJob).Methods("POST")
	r.HandleFunc("/jobs", h.ListJobs).Methods("GET")
	r.HandleFunc("/jobs/{id}", h.GetJobStatus).Methods("GET")
	r.HandleFunc("/jobs/{id}/result", h.GetResult).Methods("GET")
	r.HandleFunc("/jobs/{id}/edits", h.SaveEdits).Methods("PATCH")
	r.HandleFunc("/jobs/{id}/edits", h.ListEdits).Methods("GET")
	r.HandleFunc("/jobs/{id}/export/{format}", h.ExportResult).Methods("GET")

	// Pack routes
	r.HandleFunc("/packs", h.ListPacks).Methods("GET")
	r.HandleFunc("/packs/index", h.IndexPack).Methods("POST")

	// Other routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/diagnostics", h.Diagnostics).Methods("GET")
}

// writeError maps domain errors onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrJobNotFound):
		http.Error(w, "Job not found", http.StatusNotFound)
	case errors.Is(err, store.ErrJobNotReady):
		http.Error(w, "Job has no result yet", http.StatusConflict)
	case errors.Is(err, store.ErrInvalidTransition):
		http.Error(w, "Invalid job state transition", http.StatusConflict)
	default:
		log.Printf("Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// SubmitJob creates a new analysis job
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req models.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := h.controller.Submit(req)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Printf("Job created: %s (%s)", job.ID, job.VideoPath)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job_id": job.ID,
		"job":    job,
	})
}

// ListJobs returns all jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	all := h.controller.List()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jobs":  all,
		"count": len(all),
	})
}

// GetJobStatus returns the poll view of one job
func (h *Handler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	snapshot, err := h.controller.Status(vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// GetResult returns a job's analysis result. Corrections from the edit log
// are applied unless apply_edits=false is passed.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	applyEdits := r.URL.Query().Get("apply_edits") != "false"

	result, err := h.controller.Result(vars["id"], applyEdits)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

type saveEditsRequest struct {
	Edits []models.Edit `json:"edits"`
}

// SaveEdits appends a batch of edits to a completed job's log
func (h *Handler) SaveEdits(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req saveEditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Edits) == 0 {
		http.Error(w, "No edits provided", http.StatusBadRequest)
		return
	}

	accepted, total, err := h.controller.SaveEdits(vars["id"], req.Edits)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Printf("Job %s: %d edits appended (log length %d)", vars["id"], accepted, total)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"accepted": accepted,
		"total":    total,
	})
}

// ListEdits returns a job's full edit log in append order
func (h *Handler) ListEdits(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	editLog, err := h.controller.Edits(vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"edits": editLog,
		"count": len(editLog),
	})
}

// ExportResult renders the edits-applied result in the requested format
func (h *Handler) ExportResult(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	format, err := export.ParseFormat(vars["format"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.controller.Result(vars["id"], true)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s.%s", vars["id"], format))
	if err := export.Write(w, format, result); err != nil {
		log.Printf("Export failed for job %s: %v", vars["id"], err)
	}
}

// ListPacks returns the knowledge packs available on disk
func (h *Handler) ListPacks(w http.ResponseWriter, r *http.Request) {
	names, err := h.packs.List()
	if err != nil {
		log.Printf("Error listing packs: %v", err)
		http.Error(w, "Failed to list packs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"packs": names,
		"count": len(names),
	})
}

type indexPackRequest struct {
	Pack string `json:"pack"`
}

// IndexPack builds (or rebuilds) the search index for one pack
func (h *Handler) IndexPack(w http.ResponseWriter, r *http.Request) {
	var req indexPackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Pack == "" {
		http.Error(w, "pack is required", http.StatusBadRequest)
		return
	}

	index, err := h.packs.Build(req.Pack)
	if err != nil {
		log.Printf("Error indexing pack %s: %v", req.Pack, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("Pack %s indexed: %d chunks", req.Pack, index.Size())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"pack":   req.Pack,
		"chunks": index.Size(),
	})
}

// Health returns the health status of the service
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

// Diagnostics reports host resources and external tool availability
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	report := diagnostics.Collect(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
