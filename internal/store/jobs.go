package store

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trendhijack/trendhijack-back/internal/domain"
)

// Update is a partial mutation applied to a job. Zero-value fields are
// left untouched.
type Update struct {
	Status   domain.JobStatus
	Progress *domain.Progress
	Result   json.RawMessage
	Error    string
}

// Store holds every accepted job in memory behind one exclusive lock.
// Callers always receive copies, never live references. Terminal
// statuses are sticky: the first terminal write wins and later updates
// are ignored.
type Store struct {
	mu     sync.Mutex
	jobs   map[string]*domain.Job
	logger *slog.Logger
}

func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		jobs:   make(map[string]*domain.Job),
		logger: logger,
	}
}

// Create allocates a queued job for the given input and returns its id.
func (s *Store) Create(input domain.JobInput) string {
	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		Input:     input,
		Progress: domain.Progress{
			Step:    "QUEUED",
			Percent: 0,
			Message: "Job accepted and queued",
		},
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return job.ID
}

// Update applies a partial update. Unknown ids are a logged no-op: the
// job may have been cleared while its pipeline was still running.
func (s *Store) Update(jobID string, update Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		s.logger.Warn("job update skipped, id unknown", slog.String("job_id", jobID))
		return
	}
	if job.Status.Terminal() {
		s.logger.Debug("job update skipped, job already terminal",
			slog.String("job_id", jobID),
			slog.String("status", string(job.Status)),
		)
		return
	}

	if update.Status != "" {
		job.Status = update.Status
	}
	if update.Progress != nil {
		job.Progress = *update.Progress
	}
	if update.Result != nil {
		job.Result = append(json.RawMessage(nil), update.Result...)
	}
	if update.Error != "" {
		job.Error = update.Error
	}
	job.UpdatedAt = time.Now().UTC()
}

// Get returns a snapshot copy of a job.
func (s *Store) Get(jobID string) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return domain.Job{}, false
	}
	return cloneJob(job), true
}

// List returns a summary of every known job, newest first.
func (s *Store) List() []domain.JobSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]domain.JobSummary, 0, len(s.jobs))
	for _, job := range s.jobs {
		summaries = append(summaries, domain.JobSummary{
			ID:        job.ID,
			Status:    job.Status,
			CreatedAt: job.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// Clear removes every record. Exposed only through the debug surface.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]*domain.Job)
}

func cloneJob(job *domain.Job) domain.Job {
	clone := *job
	clone.Result = append(json.RawMessage(nil), job.Result...)
	return clone
}
