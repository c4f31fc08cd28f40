package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"dev/bravebird/workflow-engine/pkg/interpreter"
	"dev/bravebird/workflow-engine/pkg/model"
)

type countingRunner struct {
	calls atomic.Int32
}

func (r *countingRunner) Run(ctx context.Context, name, credentialName, browserType string, cancel interpreter.Cancel, progress chan<- model.ActionResult) (model.ExecutionLog, error) {
	n := r.calls.Add(1)
	return model.ExecutionLog{ID: fmt.Sprintf("log-%d", n), WorkflowName: name, FinalStatus: model.StatusSuccess}, nil
}

func TestScheduleIntervalFiresRepeatedly(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 2)
	defer s.Shutdown()

	id, err := s.Schedule(JobSpec{WorkflowName: "wf", BrowserType: "stub", Interval: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	time.Sleep(120 * time.Millisecond)
	if runner.calls.Load() < 2 {
		t.Fatalf("expected at least 2 fires, got %d", runner.calls.Load())
	}

	if !s.Cancel(id) {
		t.Fatal("Cancel returned false for a known job id")
	}
	if s.Cancel(id) {
		t.Fatal("Cancel should return false the second time")
	}
}

func TestScheduleRejectsAmbiguousTrigger(t *testing.T) {
	s := New(&countingRunner{}, 1)
	defer s.Shutdown()

	_, err := s.Schedule(JobSpec{WorkflowName: "wf", Interval: time.Second, Cron: "* * * * *"})
	if err == nil {
		t.Fatal("expected an error when both interval and cron are set")
	}
}

func TestListReportsJobs(t *testing.T) {
	s := New(&countingRunner{}, 1)
	defer s.Shutdown()

	id, err := s.Schedule(JobSpec{WorkflowName: "wf", Interval: time.Minute})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	views := s.List()
	if len(views) != 1 || views[0].ID != id {
		t.Fatalf("expected one job view with id %s, got %+v", id, views)
	}
}

func TestListReportsLastRunID(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 1)
	defer s.Shutdown()

	id, err := s.Schedule(JobSpec{WorkflowName: "wf", Interval: 15 * time.Millisecond})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, v := range s.List() {
			if v.ID == id && v.LastRunID != "" {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected LastRunID to be populated after at least one fire")
}
