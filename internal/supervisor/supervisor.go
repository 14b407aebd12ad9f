package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trendhijack/trendhijack-back/internal/domain"
	"github.com/trendhijack/trendhijack-back/internal/pipeline"
	"github.com/trendhijack/trendhijack-back/internal/redact"
	"github.com/trendhijack/trendhijack-back/internal/repository"
	"github.com/trendhijack/trendhijack-back/internal/store"
)

const (
	defaultMaxRuntime = 12 * time.Minute
	defaultTick       = 2 * time.Second
)

// Runner executes one pipeline run for a job.
type Runner interface {
	Run(ctx context.Context, input domain.JobInput) (*pipeline.Result, error)
}

// ProgressRunner is a Runner that reports native stage progress. Whether a
// runner supports it is decided once, at supervisor construction.
type ProgressRunner interface {
	Runner
	RunWithProgress(ctx context.Context, input domain.JobInput, progress pipeline.ProgressFunc) (*pipeline.Result, error)
}

type Config struct {
	Store      *store.Store
	Runner     Runner
	Archive    repository.Archiver
	Logger     *slog.Logger
	MaxRuntime time.Duration
	Tick       time.Duration
}

// Supervisor runs one execution task per submitted job, keeps the store's
// progress view current, enforces the runtime budget, and redacts results
// before they are stored.
type Supervisor struct {
	store          *store.Store
	runner         Runner
	progressRunner ProgressRunner
	archive        repository.Archiver
	logger         *slog.Logger
	maxRuntime     time.Duration
	tick           time.Duration
}

func New(config Config) *Supervisor {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxRuntime <= 0 {
		config.MaxRuntime = defaultMaxRuntime
	}
	if config.Tick <= 0 {
		config.Tick = defaultTick
	}
	progressRunner, _ := config.Runner.(ProgressRunner)
	return &Supervisor{
		store:          config.Store,
		runner:         config.Runner,
		progressRunner: progressRunner,
		archive:        config.Archive,
		logger:         config.Logger,
		maxRuntime:     config.MaxRuntime,
		tick:           config.Tick,
	}
}

// Submit starts supervising the given job out-of-band and returns
// immediately.
func (s *Supervisor) Submit(jobID string) {
	job, ok := s.store.Get(jobID)
	if !ok {
		s.logger.Warn("submit skipped, job unknown", slog.String("job_id", jobID))
		return
	}
	go s.supervise(jobID, job.Input)
}

// Checkpoints for jobs whose runner reports no native progress, placed at
// fractions of the runtime budget so a polling client always sees forward
// motion.
var syntheticCheckpoints = []struct {
	at      float64
	step    string
	percent int
	message string
}{
	{0, pipeline.StageDiscovery, 10, "Discovery in progress"},
	{1.0 / 6, pipeline.StageAnalysis, 40, "Analyzing source media"},
	{5.0 / 12, pipeline.StagePrompt, 70, "Building director brief and prompt"},
	{2.0 / 3, pipeline.StageGeneration, 95, "Generating final video"},
}

func (s *Supervisor) supervise(jobID string, input domain.JobInput) {
	s.logger.Info("job starting",
		slog.String("job_id", jobID),
		slog.String("brand", input.Brand),
		slog.String("competitor", input.Competitor),
		slog.String("location", input.Location),
	)

	s.store.Update(jobID, store.Update{
		Status: domain.JobStatusRunning,
		Progress: &domain.Progress{
			Step:    pipeline.StageDiscovery,
			Percent: 10,
			Message: "Discovering trends across sources",
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), s.maxRuntime)
	defer cancel()

	type outcome struct {
		result *pipeline.Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		if s.progressRunner != nil {
			result, err := s.progressRunner.RunWithProgress(ctx, input, func(step string, percent int, message string) {
				s.store.Update(jobID, store.Update{
					Status:   domain.JobStatusRunning,
					Progress: &domain.Progress{Step: step, Percent: percent, Message: message},
				})
			})
			done <- outcome{result: result, err: err}
			return
		}
		result, err := s.runner.Run(ctx, input)
		done <- outcome{result: result, err: err}
	}()

	start := time.Now()
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	stageIndex := 0

	for {
		select {
		case out := <-done:
			s.finalize(jobID, out.result, out.err)
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			if elapsed >= s.maxRuntime {
				s.logger.Error("job timed out",
					slog.String("job_id", jobID),
					slog.Duration("elapsed", elapsed),
				)
				s.store.Update(jobID, store.Update{
					Status: domain.JobStatusError,
					Error:  "timeout",
					Progress: &domain.Progress{
						Step:    "TIMEOUT",
						Percent: 100,
						Message: fmt.Sprintf("Job exceeded max runtime (%d minutes)", int(s.maxRuntime.Minutes())),
					},
				})
				cancel()
				s.archiveTerminal(jobID)
				return
			}

			if s.progressRunner != nil {
				continue
			}
			budget := float64(s.maxRuntime)
			for stageIndex+1 < len(syntheticCheckpoints) && float64(elapsed) >= syntheticCheckpoints[stageIndex+1].at*budget {
				stageIndex++
				checkpoint := syntheticCheckpoints[stageIndex]
				s.store.Update(jobID, store.Update{
					Status: domain.JobStatusRunning,
					Progress: &domain.Progress{
						Step:    checkpoint.step,
						Percent: checkpoint.percent,
						Message: checkpoint.message,
					},
				})
			}
		}
	}
}

func (s *Supervisor) finalize(jobID string, result *pipeline.Result, err error) {
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		s.store.Update(jobID, store.Update{
			Status: domain.JobStatusError,
			Error:  "timeout",
			Progress: &domain.Progress{
				Step:    "TIMEOUT",
				Percent: 100,
				Message: fmt.Sprintf("Job exceeded max runtime (%d minutes)", int(s.maxRuntime.Minutes())),
			},
		})
		s.archiveTerminal(jobID)
		return
	}
	if err != nil {
		s.logFailure(jobID, err)
		s.store.Update(jobID, store.Update{
			Status: domain.JobStatusError,
			Error:  err.Error(),
			Progress: &domain.Progress{
				Step:    "ERROR",
				Percent: 100,
				Message: "Pipeline execution failed",
			},
		})
		s.archiveTerminal(jobID)
		return
	}

	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		s.logger.Error("job result marshal failed",
			slog.String("job_id", jobID),
			slog.String("error", marshalErr.Error()),
		)
		s.store.Update(jobID, store.Update{
			Status: domain.JobStatusError,
			Error:  "internal result encoding error",
			Progress: &domain.Progress{
				Step:    "ERROR",
				Percent: 100,
				Message: "Pipeline execution failed",
			},
		})
		s.archiveTerminal(jobID)
		return
	}

	s.store.Update(jobID, store.Update{
		Status: domain.JobStatusDone,
		Result: redact.JSON(payload),
		Progress: &domain.Progress{
			Step:    "COMPLETE",
			Percent: 100,
			Message: "Pipeline finished successfully",
		},
	})
	s.logger.Info("job completed", slog.String("job_id", jobID))
	s.archiveTerminal(jobID)
}

// logFailure keeps the full causal detail server-side; only the top-level
// message reaches the job record.
func (s *Supervisor) logFailure(jobID string, err error) {
	attrs := []any{
		slog.String("job_id", jobID),
		slog.String("error", err.Error()),
	}
	var failure *pipeline.StageFailure
	if errors.As(err, &failure) {
		attrs = append(attrs, slog.String("stage", failure.Stage))
		if failure.Trace != nil {
			for _, stageErr := range failure.Trace.Errors {
				attrs = append(attrs, slog.String("trace_"+stageErr.Stage, stageErr.Error))
			}
		}
	}
	s.logger.Error("job failed", attrs...)
}

func (s *Supervisor) archiveTerminal(jobID string) {
	if s.archive == nil {
		return
	}
	job, ok := s.store.Get(jobID)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.archive.ArchiveTerminal(ctx, job); err != nil {
		s.logger.Warn("job archive failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}
