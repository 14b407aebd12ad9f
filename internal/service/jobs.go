package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trendhijack/trendhijack-back/internal/domain"
	"github.com/trendhijack/trendhijack-back/internal/redact"
	"github.com/trendhijack/trendhijack-back/internal/store"
	"github.com/trendhijack/trendhijack-back/internal/supervisor"
)

// ErrJobNotFound is returned when a polled job id is unknown or was
// cleared.
var ErrJobNotFound = errors.New("job not found")

// ValidationError rejects a request before any job exists.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing %s", e.Field)
}

type JobsService struct {
	store      *store.Store
	supervisor *supervisor.Supervisor
	runner     supervisor.Runner
	logger     *slog.Logger
}

func NewJobsService(jobs *store.Store, sup *supervisor.Supervisor, runner supervisor.Runner, logger *slog.Logger) *JobsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsService{
		store:      jobs,
		supervisor: sup,
		runner:     runner,
		logger:     logger,
	}
}

func validateInput(input domain.JobInput) (domain.JobInput, error) {
	input.Brand = strings.TrimSpace(input.Brand)
	input.Competitor = strings.TrimSpace(input.Competitor)
	input.Location = strings.TrimSpace(input.Location)

	switch {
	case input.Brand == "":
		return domain.JobInput{}, &ValidationError{Field: "brand"}
	case input.Competitor == "":
		return domain.JobInput{}, &ValidationError{Field: "competitor"}
	case input.Location == "":
		return domain.JobInput{}, &ValidationError{Field: "location"}
	}
	return input, nil
}

// Submit validates the request, creates a queued job and hands it to the
// supervisor. It returns before the pipeline does any work.
func (s *JobsService) Submit(input domain.JobInput) (string, error) {
	input, err := validateInput(input)
	if err != nil {
		return "", err
	}

	jobID := s.store.Create(input)
	s.supervisor.Submit(jobID)
	s.logger.Info("job accepted", slog.String("job_id", jobID))
	return jobID, nil
}

// RunSync runs the pipeline inline and returns the redacted result
// directly, creating no job record. Intended for smoke checks and short
// runs only; it is not covered by the supervisor's runtime budget.
func (s *JobsService) RunSync(ctx context.Context, input domain.JobInput) (json.RawMessage, error) {
	input, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	result, err := s.runner.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return redact.JSON(payload), nil
}

func (s *JobsService) Get(jobID string) (domain.Job, error) {
	job, ok := s.store.Get(jobID)
	if !ok {
		return domain.Job{}, ErrJobNotFound
	}
	return job, nil
}

func (s *JobsService) List() []domain.JobSummary {
	return s.store.List()
}

func (s *JobsService) Clear() {
	s.store.Clear()
}
