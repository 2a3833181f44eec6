package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func newTestScheduler() (*Scheduler, context.CancelFunc) {
	s := New(NewMemoryJobStore(), 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	return s, cancel
}

func TestScheduleAndComplete(t *testing.T) {
	s, cancel := newTestScheduler()
	defer cancel()

	var calls int32
	done := make(chan Result, 1)

	id, err := s.ScheduleAfter(context.Background(), 10*time.Millisecond,
		Job{Kind: "test", UserID: 1},
		func(ctx context.Context) (string, error) { return "payload", nil },
		func(res Result) {
			atomic.AddInt32(&calls, 1)
			done <- res
		},
	)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if id == "" {
		t.Fatal("expected job id")
	}

	select {
	case res := <-done:
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if res.Payload != "payload" {
			t.Fatalf("payload = %q", res.Payload)
		}
		if res.Job.UserID != 1 || res.Job.Kind != "test" {
			t.Fatalf("job metadata lost: %+v", res.Job)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("completion callback never fired")
	}

	// give the poller extra cycles to prove exactly-once dispatch
	time.Sleep(100 * time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("callback fired %d times, want 1", n)
	}
	if s.Outstanding() != 0 {
		t.Fatalf("outstanding = %d, want 0", s.Outstanding())
	}
}

func TestFailedWorkReachesErrorPath(t *testing.T) {
	s, cancel := newTestScheduler()
	defer cancel()

	done := make(chan Result, 1)
	_, err := s.ScheduleAfter(context.Background(), time.Millisecond,
		Job{Kind: "boom"},
		func(ctx context.Context) (string, error) { return "", errors.New("kaput") },
		func(res Result) { done <- res },
	)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case res := <-done:
		if res.Err == nil || res.Err.Error() != "kaput" {
			t.Fatalf("expected kaput error, got %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error callback never fired")
	}
}

func TestWaitFor(t *testing.T) {
	s, cancel := newTestScheduler()
	defer cancel()

	id, err := s.ScheduleAfter(context.Background(), time.Millisecond,
		Job{Kind: "selfcheck"},
		func(ctx context.Context) (string, error) { return "ok", nil },
		nil,
	)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	ctx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := s.WaitFor(ctx, id); err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
}

func TestWaitForFailedJob(t *testing.T) {
	s, cancel := newTestScheduler()
	defer cancel()

	id, _ := s.ScheduleAfter(context.Background(), time.Millisecond,
		Job{Kind: "selfcheck"},
		func(ctx context.Context) (string, error) { return "", errors.New("init failed") },
		nil,
	)

	ctx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := s.WaitFor(ctx, id); err == nil {
		t.Fatal("expected error from failed job")
	}
}

func TestRestoreFiresOverdueJobs(t *testing.T) {
	store := NewMemoryJobStore()

	// simulate a job persisted by a previous process whose run time passed
	old := &Job{
		ID:     "restored-1",
		Kind:   "task_completion",
		UserID: 9,
		TaskID: 3,
		RunAt:  time.Now().Add(-time.Minute),
		Status: StatusPending,
	}
	if err := store.Create(context.Background(), old); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	s := New(store, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	done := make(chan Result, 1)
	err := s.Restore(context.Background(), func(job *Job) (Work, Completion, bool) {
		if job.Kind != "task_completion" {
			return nil, nil, false
		}
		return func(ctx context.Context) (string, error) { return "resumed", nil },
			func(res Result) { done <- res }, true
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	select {
	case res := <-done:
		if res.Job.UserID != 9 || res.Job.TaskID != 3 {
			t.Fatalf("restored job metadata lost: %+v", res.Job)
		}
		if res.Payload != "resumed" {
			t.Fatalf("payload = %q", res.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("restored job never completed")
	}
}

func TestRestoreSkipsUnknownKinds(t *testing.T) {
	store := NewMemoryJobStore()
	_ = store.Create(context.Background(), &Job{
		ID: "x", Kind: "mystery", RunAt: time.Now(), Status: StatusPending,
	})

	s := New(store, 20*time.Millisecond)
	err := s.Restore(context.Background(), func(job *Job) (Work, Completion, bool) {
		return nil, nil, false
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.Outstanding() != 0 {
		t.Fatalf("outstanding = %d, want 0", s.Outstanding())
	}
}
