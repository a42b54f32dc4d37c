// Package jobqueue provides the scraping job queue consumed by the jobs
// listing endpoints.
package jobqueue

import (
	"context"
	"errors"
	"time"
)

// JobStatus is the queue-side lifecycle of a scraping job.
type JobStatus string

const (
	JobStatusWaiting   JobStatus = "waiting"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusDelayed   JobStatus = "delayed"
)

// ErrJobNotFound indicates a job was not found by the given identifier.
var ErrJobNotFound = errors.New("job not found")

// Job is one queued scraping job.
type Job struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Status     JobStatus      `json:"status"`
	Payload    map[string]any `json:"payload,omitempty"`
	Error      string         `json:"error,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Queue is the job queue capability: ranged status listings plus single-job
// lookup. Start and end are zero-based positions into the newest-first
// ordering, inclusive, matching the dashboard's paging.
type Queue interface {
	Enqueue(ctx context.Context, job *Job) error
	SetStatus(ctx context.Context, id string, status JobStatus, jobErr string) error
	Jobs(ctx context.Context, statuses []JobStatus, start, end int64) ([]*Job, error)
	Job(ctx context.Context, id string) (*Job, error)
	Close() error
}
