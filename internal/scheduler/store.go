package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is the durable record of one scheduled unit of work. Persisting RunAt
// lets a restarted scheduler resume pending completions instead of losing
// them.
type Job struct {
	ID        string
	Kind      string
	UserID    int64
	TaskID    int64
	RunAt     time.Time
	Status    Status
	Result    string
	CreatedAt time.Time
}

var ErrJobNotFound = errors.New("job not found")

// JobStore persists scheduled jobs. The executing timer and the completion
// poller communicate only through this store, never shared memory.
type JobStore interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	SetStatus(ctx context.Context, id string, status Status, result string) error
	ListPending(ctx context.Context) ([]*Job, error)
}

// MemoryJobStore is an in-memory JobStore for tests and single-process use.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]Job)}
}

func (s *MemoryJobStore) Create(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.CreatedAt = time.Now()
	s.jobs[job.ID] = *job
	return nil
}

func (s *MemoryJobStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

func (s *MemoryJobStore) SetStatus(ctx context.Context, id string, status Status, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = status
	job.Result = result
	s.jobs[id] = job
	return nil
}

func (s *MemoryJobStore) ListPending(ctx context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Job
	for _, job := range s.jobs {
		if job.Status == StatusPending {
			j := job
			res = append(res, &j)
		}
	}
	return res, nil
}
