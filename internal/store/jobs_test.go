package store

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/trendhijack/trendhijack-back/internal/domain"
)

func newTestStore() *Store {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateStartsQueuedWithFreshID(t *testing.T) {
	s := newTestStore()

	first := s.Create(domain.JobInput{Brand: "acme", Competitor: "rival", Location: "austin"})
	second := s.Create(domain.JobInput{Brand: "acme", Competitor: "rival", Location: "austin"})

	if first == second {
		t.Fatalf("expected unique job ids, got %s twice", first)
	}

	job, ok := s.Get(first)
	if !ok {
		t.Fatalf("expected job to exist")
	}
	if job.Status != domain.JobStatusQueued {
		t.Fatalf("expected queued status, got %s", job.Status)
	}
	if job.Progress.Step != "QUEUED" || job.Progress.Percent != 0 {
		t.Fatalf("expected initial progress, got %+v", job.Progress)
	}
	if job.Result != nil || job.Error != "" {
		t.Fatalf("expected no result or error on a fresh job, got %+v", job)
	}
}

func TestUpdateUnknownJobIsNoOp(t *testing.T) {
	s := newTestStore()
	s.Update("missing", Update{Status: domain.JobStatusRunning})

	if _, ok := s.Get("missing"); ok {
		t.Fatalf("expected unknown id to stay unknown")
	}
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	s := newTestStore()
	id := s.Create(domain.JobInput{Brand: "acme", Competitor: "rival", Location: "austin"})

	s.Update(id, Update{
		Status:   domain.JobStatusRunning,
		Progress: &domain.Progress{Step: "discovery", Percent: 10, Message: "Discovering trends"},
	})

	job, _ := s.Get(id)
	if job.Status != domain.JobStatusRunning {
		t.Fatalf("expected running status, got %s", job.Status)
	}
	if job.Progress.Percent != 10 {
		t.Fatalf("expected progress update, got %+v", job.Progress)
	}
	if job.UpdatedAt.Before(job.CreatedAt) {
		t.Fatalf("expected updated_at refresh")
	}

	s.Update(id, Update{Progress: &domain.Progress{Step: "analysis", Percent: 40, Message: "Analyzing"}})
	job, _ = s.Get(id)
	if job.Status != domain.JobStatusRunning {
		t.Fatalf("expected status untouched by progress-only update, got %s", job.Status)
	}
}

func TestTerminalStatusIsSticky(t *testing.T) {
	s := newTestStore()
	id := s.Create(domain.JobInput{Brand: "acme", Competitor: "rival", Location: "austin"})

	s.Update(id, Update{
		Status:   domain.JobStatusError,
		Error:    "timeout",
		Progress: &domain.Progress{Step: "TIMEOUT", Percent: 100, Message: "Job exceeded max runtime"},
	})

	// A late pipeline completion must not overwrite the first terminal write.
	s.Update(id, Update{
		Status: domain.JobStatusDone,
		Result: json.RawMessage(`{"video_url":"https://example.com/v.mp4"}`),
	})

	job, _ := s.Get(id)
	if job.Status != domain.JobStatusError {
		t.Fatalf("expected first terminal write to win, got %s", job.Status)
	}
	if job.Error != "timeout" {
		t.Fatalf("expected timeout error preserved, got %q", job.Error)
	}
	if job.Result != nil {
		t.Fatalf("expected late result to be discarded, got %s", job.Result)
	}
}

func TestGetReturnsCopies(t *testing.T) {
	s := newTestStore()
	id := s.Create(domain.JobInput{Brand: "acme", Competitor: "rival", Location: "austin"})
	s.Update(id, Update{Status: domain.JobStatusDone, Result: json.RawMessage(`{"ok":true}`)})

	job, _ := s.Get(id)
	job.Status = domain.JobStatusQueued
	job.Result[2] = 'X'

	fresh, _ := s.Get(id)
	if fresh.Status != domain.JobStatusDone {
		t.Fatalf("expected caller mutation to be invisible, got %s", fresh.Status)
	}
	if string(fresh.Result) != `{"ok":true}` {
		t.Fatalf("expected stored result untouched, got %s", fresh.Result)
	}
}

func TestListReturnsSummariesNewestFirst(t *testing.T) {
	s := newTestStore()
	s.Create(domain.JobInput{Brand: "a", Competitor: "b", Location: "c"})
	s.Create(domain.JobInput{Brand: "d", Competitor: "e", Location: "f"})

	summaries := s.List()
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	for _, summary := range summaries {
		if summary.ID == "" || summary.Status != domain.JobStatusQueued {
			t.Fatalf("unexpected summary %+v", summary)
		}
	}
}

func TestClearRemovesEverything(t *testing.T) {
	s := newTestStore()
	id := s.Create(domain.JobInput{Brand: "a", Competitor: "b", Location: "c"})

	s.Clear()

	if _, ok := s.Get(id); ok {
		t.Fatalf("expected store to be empty after clear")
	}
	if len(s.List()) != 0 {
		t.Fatalf("expected empty listing after clear")
	}
}
