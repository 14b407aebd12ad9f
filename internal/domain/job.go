package domain

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// Terminal reports whether the status can never change again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// JobInput is the validated request that created a job. Immutable after creation.
type JobInput struct {
	Brand      string `json:"brand"`
	Competitor string `json:"competitor"`
	Location   string `json:"location"`
}

// Progress is the last-write-wins snapshot shown to polling clients.
type Progress struct {
	Step    string `json:"step"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Job is one tracked asynchronous pipeline run for one request.
// Exactly one of Result/Error is populated once the status is terminal.
type Job struct {
	ID        string          `json:"id"`
	Status    JobStatus       `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Input     JobInput        `json:"input"`
	Progress  Progress        `json:"progress"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// JobSummary is the listing projection for operational visibility.
type JobSummary struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
