package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/trendhijack/trendhijack-back/internal/service"
)

// JobStatus returns the full record of one job.
func (api *API) JobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	jobID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/v1/jobs/"))
	if jobID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "job_id is required")
		return
	}

	job, err := api.jobs.Get(jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Jobs lists every known job in newest-first order.
func (api *API) Jobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": api.jobs.List()})
}

// ClearJobs empties the store. Only available when the server runs in
// debug mode.
func (api *API) ClearJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if !api.debug {
		writeError(w, r, http.StatusForbidden, "forbidden", "clearing jobs is disabled")
		return
	}

	api.jobs.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}
