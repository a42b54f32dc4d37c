package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_EnqueueDefaults(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx := context.Background()

	job := &Job{Name: "scrape-profile"}
	require.NoError(t, q.Enqueue(ctx, job))

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobStatusWaiting, job.Status)
	assert.False(t, job.EnqueuedAt.IsZero())

	stored, err := q.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, stored.ID)
}

func TestMemoryQueue_SetStatus(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx := context.Background()

	job := &Job{Name: "scrape-profile"}
	require.NoError(t, q.Enqueue(ctx, job))

	require.NoError(t, q.SetStatus(ctx, job.ID, JobStatusFailed, "timeout"))

	stored, err := q.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, stored.Status)
	assert.Equal(t, "timeout", stored.Error)
}

func TestMemoryQueue_SetStatus_NotFound(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()

	err := q.SetStatus(context.Background(), "ghost", JobStatusActive, "")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemoryQueue_Jobs_RangeAndOrdering(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx := context.Background()

	base := time.Now().UTC()

	for i := range 5 {
		job := &Job{
			Name:       "job",
			Status:     JobStatusWaiting,
			EnqueuedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, q.Enqueue(ctx, job))
	}

	jobs, err := q.Jobs(ctx, []JobStatus{JobStatusWaiting}, 0, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	for i := 1; i < len(jobs); i++ {
		assert.True(t, jobs[i].EnqueuedAt.Before(jobs[i-1].EnqueuedAt))
	}

	tail, err := q.Jobs(ctx, []JobStatus{JobStatusWaiting}, 3, 100)
	require.NoError(t, err)
	assert.Len(t, tail, 2)

	empty, err := q.Jobs(ctx, []JobStatus{JobStatusWaiting}, 50, 60)
	require.NoError(t, err)
	assert.Empty(t, empty)

	none, err := q.Jobs(ctx, []JobStatus{JobStatusCompleted}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryQueue_Job_NotFound(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()

	_, err := q.Job(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
