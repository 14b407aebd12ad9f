package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trendhijack/trendhijack-back/internal/http/middleware"
	"github.com/trendhijack/trendhijack-back/internal/service"
)

var errInvalidPayload = errors.New("invalid payload")

// ServiceAvailability reflects which external collaborators had
// credentials at startup.
type ServiceAvailability struct {
	Search     bool `json:"search"`
	Microblog  bool `json:"microblog"`
	Analysis   bool `json:"analysis"`
	Generation bool `json:"generation"`
}

type Config struct {
	Jobs      *service.JobsService
	Services  ServiceAvailability
	Models    map[string]string
	SmokeMode bool
	Debug     bool
}

type API struct {
	jobs      *service.JobsService
	services  ServiceAvailability
	models    map[string]string
	smokeMode bool
	debug     bool
}

func NewAPI(config Config) *API {
	return &API{
		jobs:      config.Jobs,
		services:  config.Services,
		models:    config.Models,
		smokeMode: config.SmokeMode,
		debug:     config.Debug,
	}
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	payload := errorPayload{RequestID: middleware.GetRequestID(r.Context())}
	payload.Error.Code = code
	payload.Error.Message = message
	writeJSON(w, statusCode, payload)
}

func decodeJSON(r *http.Request, value any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value); err != nil {
		return errInvalidPayload
	}
	return nil
}
