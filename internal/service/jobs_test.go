package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/trendhijack/trendhijack-back/internal/domain"
	"github.com/trendhijack/trendhijack-back/internal/pipeline"
	"github.com/trendhijack/trendhijack-back/internal/store"
	"github.com/trendhijack/trendhijack-back/internal/supervisor"
)

func smokeService(t *testing.T) *JobsService {
	t.Helper()
	machine := pipeline.New(pipeline.Config{Mode: pipeline.ModeSmoke})
	jobs := store.New(nil)
	sup := supervisor.New(supervisor.Config{
		Store:  jobs,
		Runner: machine,
		Tick:   time.Millisecond,
	})
	return NewJobsService(jobs, sup, machine, nil)
}

func TestSubmitRejectsBlankFields(t *testing.T) {
	svc := smokeService(t)

	cases := []struct {
		input domain.JobInput
		field string
	}{
		{domain.JobInput{Brand: "", Competitor: "x", Location: "y"}, "brand"},
		{domain.JobInput{Brand: "a", Competitor: "  ", Location: "y"}, "competitor"},
		{domain.JobInput{Brand: "a", Competitor: "x", Location: ""}, "location"},
	}
	for _, tc := range cases {
		_, err := svc.Submit(tc.input)
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("expected validation error for %+v, got %v", tc.input, err)
		}
		if validation.Field != tc.field {
			t.Errorf("expected field %q, got %q", tc.field, validation.Field)
		}
	}
	if got := len(svc.List()); got != 0 {
		t.Errorf("rejected requests must create no jobs, found %d", got)
	}
}

func TestSubmitCreatesQueuedJobAndCompletes(t *testing.T) {
	svc := smokeService(t)

	jobID, err := svc.Submit(domain.JobInput{Brand: " acme ", Competitor: "globex", Location: "Berlin"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	job, err := svc.Get(jobID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if job.Input.Brand != "acme" {
		t.Errorf("expected trimmed input, got %q", job.Input.Brand)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, _ = svc.Get(jobID)
		if job.Status.Terminal() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if job.Status != domain.JobStatusDone {
		t.Fatalf("smoke job did not complete: %+v", job)
	}
	if job.Result == nil {
		t.Fatal("done job missing result")
	}
}

func TestRunSyncReturnsRedactedResultWithoutJob(t *testing.T) {
	svc := smokeService(t)

	payload, err := svc.RunSync(context.Background(), domain.JobInput{
		Brand: "acme", Competitor: "globex", Location: "Berlin",
	})
	if err != nil {
		t.Fatalf("sync run failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode sync result: %v", err)
	}
	if decoded["status"] != "success" {
		t.Errorf("unexpected sync result %v", decoded)
	}
	if got := len(svc.List()); got != 0 {
		t.Errorf("sync run must create no job record, found %d", got)
	}
}

func TestGetUnknownJob(t *testing.T) {
	svc := smokeService(t)
	if _, err := svc.Get("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}
