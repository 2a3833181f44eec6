package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tycoon_bot/internal/logger"

	"github.com/google/uuid"
)

// Work is a deferred unit of work. It runs no earlier than the scheduled
// delay and returns a result payload recorded in the job store.
type Work func(ctx context.Context) (string, error)

// Result is handed to the completion callback exactly once per job.
type Result struct {
	Job     Job
	Payload string
	Err     error
}

// Completion is the caller-supplied notification for a finished job.
type Completion func(res Result)

type pendingJob struct {
	onComplete Completion
	done       chan struct{}
}

// Scheduler runs work items after a delay and reports their completion
// through a polling loop: a timer fires the work and writes its status to
// the store, the poller observes the status and dispatches the callback.
// Failed work reaches the callback's error path; the scheduler never
// retries on its own.
type Scheduler struct {
	store        JobStore
	pollInterval time.Duration
	log          *slog.Logger

	mu          sync.Mutex
	outstanding map[string]*pendingJob
	stopped     bool
}

func New(store JobStore, pollInterval time.Duration) *Scheduler {
	return &Scheduler{
		store:        store,
		pollInterval: pollInterval,
		log:          logger.Component("scheduler"),
		outstanding:  make(map[string]*pendingJob),
	}
}

// ScheduleAfter registers a job to execute work after delay and to deliver
// the result to onComplete. It returns the durable job id.
func (s *Scheduler) ScheduleAfter(ctx context.Context, delay time.Duration, job Job, work Work, onComplete Completion) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.RunAt = time.Now().Add(delay)
	job.Status = StatusPending

	if err := s.store.Create(ctx, &job); err != nil {
		return "", err
	}

	s.track(job.ID, onComplete)
	s.armTimer(job, delay, work)

	s.log.Info("job scheduled", "id", job.ID, "kind", job.Kind, "delay", delay)
	return job.ID, nil
}

func (s *Scheduler) track(id string, onComplete Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outstanding[id] = &pendingJob{onComplete: onComplete, done: make(chan struct{})}
}

func (s *Scheduler) armTimer(job Job, delay time.Duration, work Work) {
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		payload, err := work(ctx)
		if err != nil {
			s.log.Warn("job failed", "id", job.ID, "kind", job.Kind, "error", err)
			if serr := s.store.SetStatus(ctx, job.ID, StatusFailed, err.Error()); serr != nil {
				s.log.Error("failed to record job failure", "id", job.ID, "error", serr)
			}
			return
		}
		if serr := s.store.SetStatus(ctx, job.ID, StatusSucceeded, payload); serr != nil {
			s.log.Error("failed to record job success", "id", job.ID, "error", serr)
		}
	})
}

// Run polls outstanding jobs and dispatches completion callbacks. Each
// finished job is removed from the outstanding set before its callback
// fires, so a callback can never run twice. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.stopped = true
			s.mu.Unlock()
			return
		case <-ticker.C:
			s.dispatchFinished(ctx)
		}
	}
}

func (s *Scheduler) dispatchFinished(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.outstanding))
	for id := range s.outstanding {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		job, err := s.store.Get(ctx, id)
		if err != nil {
			s.log.Error("poll failed", "id", id, "error", err)
			continue
		}
		if job.Status == StatusPending {
			continue
		}

		s.mu.Lock()
		p, ok := s.outstanding[id]
		if ok {
			delete(s.outstanding, id)
		}
		s.mu.Unlock()
		if !ok {
			continue
		}

		res := Result{Job: *job, Payload: job.Result}
		if job.Status == StatusFailed {
			res.Err = errors.New(job.Result)
		}
		if p.onComplete != nil {
			p.onComplete(res)
		}
		close(p.done)
	}
}

// WaitFor blocks until the given job's completion callback has been
// dispatched, or the context is cancelled. Used for startup self-checks.
func (s *Scheduler) WaitFor(ctx context.Context, id string) error {
	s.mu.Lock()
	p, ok := s.outstanding[id]
	s.mu.Unlock()

	if ok {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
		}
	}

	job, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == StatusFailed {
		return errors.New(job.Result)
	}
	return nil
}

// RestoreFunc rebuilds the work and callback for a persisted pending job.
// Returning false skips the job.
type RestoreFunc func(job *Job) (Work, Completion, bool)

// Restore re-arms pending jobs found in the store after a restart. Overdue
// jobs fire immediately; future ones keep their original RunAt.
func (s *Scheduler) Restore(ctx context.Context, rebuild RestoreFunc) error {
	jobs, err := s.store.ListPending(ctx)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		work, onComplete, ok := rebuild(job)
		if !ok {
			s.log.Warn("skipping unknown pending job", "id", job.ID, "kind", job.Kind)
			continue
		}
		s.track(job.ID, onComplete)
		s.armTimer(*job, time.Until(job.RunAt), work)
		s.log.Info("job restored", "id", job.ID, "kind", job.Kind, "run_at", job.RunAt)
	}
	return nil
}

// Outstanding reports how many jobs still await completion dispatch.
func (s *Scheduler) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outstanding)
}
