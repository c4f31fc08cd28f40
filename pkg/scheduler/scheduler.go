// Package scheduler implements the background component that triggers
// WorkflowService.Run at configured times: cron expressions, fixed
// intervals, or one-shot dates, unified behind a small trigger
// interface. See SPEC_FULL.md §4.8.
package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron"
	"golang.org/x/sync/semaphore"

	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/interpreter"
	"dev/bravebird/workflow-engine/pkg/model"
)

// DefaultWorkerPoolSize is the default concurrent-job cap.
const DefaultWorkerPoolSize = 5

// Runner is the subset of WorkflowService a Scheduler drives. The
// concrete implementation (*service.WorkflowService or a
// distributed.Runner wrapping a durable Temporal dispatch) is supplied
// by the caller, keeping this package free of a direct dependency on
// either.
type Runner interface {
	Run(ctx context.Context, name, credentialName, browserType string, cancel interpreter.Cancel, progress chan<- model.ActionResult) (model.ExecutionLog, error)
}

// JobSpec describes a scheduled job. Exactly one of Cron, Interval, or
// At must be set; Schedule rejects specs with zero or more than one.
type JobSpec struct {
	WorkflowName   string
	CredentialName string // optional, per spec.md §4.8's job model
	BrowserType    string
	Cron           string        // robfig/cron v1 cron.Parse spec: leading seconds field, or a descriptor such as "@every 1h"
	Interval       time.Duration // fixed-interval trigger
	At             time.Time     // one-shot date trigger
}

// JobView is the read-only projection List returns.
type JobView struct {
	ID             string
	WorkflowName   string
	CredentialName string
	BrowserType    string
	NextFire       time.Time
	Running        bool
	// LastRunID points at the most recent ExecutionLog.ID this job
	// produced, for observability only; empty until the first fire
	// completes.
	LastRunID string
}

// trigger unifies CronSpec/IntervalSpec/DateSpec behind one interface.
type trigger interface {
	// Next returns the first fire time strictly after `after`, or
	// ok=false when the trigger has nothing left to schedule (a
	// one-shot date trigger that has already fired).
	Next(after time.Time) (t time.Time, ok bool)
}

type cronTrigger struct{ schedule cron.Schedule }

func (t cronTrigger) Next(after time.Time) (time.Time, bool) {
	return t.schedule.Next(after), true
}

type intervalTrigger struct{ interval time.Duration }

func (t intervalTrigger) Next(after time.Time) (time.Time, bool) {
	return after.Add(t.interval), true
}

type dateTrigger struct {
	at   time.Time
	done bool
}

func (t *dateTrigger) Next(after time.Time) (time.Time, bool) {
	if t.done || !t.at.After(after) {
		return time.Time{}, false
	}
	return t.at, true
}

type job struct {
	id      string
	spec    JobSpec
	trig    trigger
	running atomic.Bool
	stop    chan struct{}

	mu        sync.Mutex
	nextFire  time.Time
	lastRunID string
}

// Scheduler triggers Runner.Run at configured times, bounding
// concurrent executions with an internal worker pool.
type Scheduler struct {
	runner Runner
	sem    *semaphore.Weighted

	mu   sync.Mutex
	jobs map[string]*job

	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// New constructs a Scheduler driving runner, with at most poolSize
// concurrent job executions (DefaultWorkerPoolSize when poolSize <= 0).
func New(runner Runner, poolSize int) *Scheduler {
	if poolSize <= 0 {
		poolSize = DefaultWorkerPoolSize
	}
	return &Scheduler{
		runner:   runner,
		sem:      semaphore.NewWeighted(int64(poolSize)),
		jobs:     make(map[string]*job),
		shutdown: make(chan struct{}),
	}
}

// Schedule registers spec and starts its trigger loop, returning a
// generated job id.
func (s *Scheduler) Schedule(spec JobSpec) (string, error) {
	trig, err := buildTrigger(spec)
	if err != nil {
		return "", err
	}

	j := &job{id: uuid.NewString(), spec: spec, trig: trig, stop: make(chan struct{})}
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()

	s.wg.Add(1)
	go s.driveJob(j)

	return j.id, nil
}

func buildTrigger(spec JobSpec) (trigger, error) {
	set := 0
	if spec.Cron != "" {
		set++
	}
	if spec.Interval > 0 {
		set++
	}
	if !spec.At.IsZero() {
		set++
	}
	if set != 1 {
		return nil, &errs.ValidationError{Field: "trigger", Message: "exactly one of cron, interval, or at must be set"}
	}

	switch {
	case spec.Cron != "":
		schedule, err := cron.Parse(spec.Cron)
		if err != nil {
			return nil, &errs.ValidationError{Field: "cron", Message: err.Error()}
		}
		return cronTrigger{schedule: schedule}, nil
	case spec.Interval > 0:
		return intervalTrigger{interval: spec.Interval}, nil
	default:
		return &dateTrigger{at: spec.At}, nil
	}
}

// driveJob owns a job's lifetime: it computes successive fire times and
// dispatches a run at each, until Cancel/Shutdown closes j.stop or the
// trigger runs dry (a one-shot date trigger after it fires).
func (s *Scheduler) driveJob(j *job) {
	defer s.wg.Done()
	now := time.Now()
	for {
		next, ok := j.trig.Next(now)
		if !ok {
			return
		}
		j.mu.Lock()
		j.nextFire = next
		j.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-j.stop:
			timer.Stop()
			return
		case <-s.shutdown:
			timer.Stop()
			return
		case fireTime := <-timer.C:
			s.fire(j)
			now = fireTime
		}
	}
}

// fire dispatches one run of j, honoring coalesce:false/max_instances:1
// (a fire observed while the previous run is still in flight is skipped,
// not queued) and the worker pool's concurrency cap.
func (s *Scheduler) fire(j *job) {
	if !j.running.CompareAndSwap(false, true) {
		log.Printf("scheduler: job %s fire skipped, previous run still in flight", j.id)
		return
	}

	if !s.sem.TryAcquire(1) {
		log.Printf("scheduler: job %s fire skipped, worker pool at capacity", j.id)
		j.running.Store(false)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		defer j.running.Store(false)

		ctx := context.Background()
		cancelled := false
		cancel := func() bool {
			select {
			case <-j.stop:
				cancelled = true
			default:
			}
			return cancelled
		}
		runLog, err := s.runner.Run(ctx, j.spec.WorkflowName, j.spec.CredentialName, j.spec.BrowserType, cancel, nil)
		if err != nil {
			log.Printf("scheduler: job %s run failed: %v", j.id, err)
		}
		if runLog.ID != "" {
			j.mu.Lock()
			j.lastRunID = runLog.ID
			j.mu.Unlock()
		}
	}()
}

// List returns a snapshot view of every registered job.
func (s *Scheduler) List() []JobView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]JobView, 0, len(s.jobs))
	for _, j := range s.jobs {
		j.mu.Lock()
		views = append(views, JobView{
			ID:             j.id,
			WorkflowName:   j.spec.WorkflowName,
			CredentialName: j.spec.CredentialName,
			BrowserType:    j.spec.BrowserType,
			NextFire:       j.nextFire,
			Running:        j.running.Load(),
			LastRunID:      j.lastRunID,
		})
		j.mu.Unlock()
	}
	return views
}

// Cancel removes a job's schedule. A run already in flight is not
// interrupted unless its own cancel signal observes j.stop closing
// (which it does, via the closure fire installs).
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	j, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	close(j.stop)
	return true
}

// Shutdown stops every job's trigger loop and waits for in-flight runs
// to finish.
func (s *Scheduler) Shutdown() {
	s.once.Do(func() { close(s.shutdown) })
	s.wg.Wait()
}
