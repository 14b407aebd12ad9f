package handlers

import (
	"errors"
	"net/http"

	"github.com/trendhijack/trendhijack-back/internal/domain"
	"github.com/trendhijack/trendhijack-back/internal/service"
)

type generateRequest struct {
	Brand      string `json:"brand"`
	Competitor string `json:"competitor"`
	Location   string `json:"location"`
}

func (request generateRequest) input() domain.JobInput {
	return domain.JobInput{
		Brand:      request.Brand,
		Competitor: request.Competitor,
		Location:   request.Location,
	}
}

// Generate accepts a content-generation request and returns the queued
// job id immediately.
func (api *API) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var request generateRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid payload")
		return
	}

	jobID, err := api.jobs.Submit(request.input())
	if err != nil {
		var validation *service.ValidationError
		if errors.As(err, &validation) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", validation.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to accept job")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": "queued",
	})
}

// GenerateSync runs the pipeline inline and returns the redacted result.
// No job record is created; intended for smoke checks and short runs.
func (api *API) GenerateSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var request generateRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid payload")
		return
	}

	payload, err := api.jobs.RunSync(r.Context(), request.input())
	if err != nil {
		var validation *service.ValidationError
		if errors.As(err, &validation) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", validation.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "pipeline_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
