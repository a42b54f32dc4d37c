package jobqueue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is an in-process queue for development and tests.
type MemoryQueue struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{jobs: make(map[string]*Job)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	now := time.Now().UTC()

	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = now
	}

	job.UpdatedAt = now

	if job.Status == "" {
		job.Status = JobStatusWaiting
	}

	clone := *job
	q.jobs[job.ID] = &clone

	return nil
}

func (q *MemoryQueue) SetStatus(_ context.Context, id string, status JobStatus, jobErr string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return ErrJobNotFound
	}

	job.Status = status
	job.Error = jobErr
	job.UpdatedAt = time.Now().UTC()

	return nil
}

func (q *MemoryQueue) Jobs(_ context.Context, statuses []JobStatus, start, end int64) ([]*Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	wanted := make(map[JobStatus]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}

	matching := make([]*Job, 0)

	for _, job := range q.jobs {
		if wanted[job.Status] {
			clone := *job
			matching = append(matching, &clone)
		}
	}

	sort.Slice(matching, func(i, j int) bool {
		return matching[i].EnqueuedAt.After(matching[j].EnqueuedAt)
	})

	if start < 0 {
		start = 0
	}

	if start >= int64(len(matching)) {
		return []*Job{}, nil
	}

	if end >= int64(len(matching)) {
		end = int64(len(matching)) - 1
	}

	return matching[start : end+1], nil
}

func (q *MemoryQueue) Job(_ context.Context, id string) (*Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	clone := *job

	return &clone, nil
}

func (q *MemoryQueue) Close() error {
	return nil
}
