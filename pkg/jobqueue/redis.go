package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "caravel:jobs"

// RedisQueue stores jobs as JSON blobs plus one sorted set per status,
// scored by enqueue time so ranged reads come back newest first.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue connects to redis and verifies the connection.
func NewRedisQueue(ctx context.Context, redisURL string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisQueue{client: client}, nil
}

func jobKey(id string) string {
	return keyPrefix + ":job:" + id
}

func statusKey(status JobStatus) string {
	return keyPrefix + ":status:" + string(status)
}

func (q *RedisQueue) Enqueue(ctx context.Context, job *Job) error {
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

	if err := q.write(ctx, job); err != nil {
		return err
	}

	return q.client.ZAdd(ctx, statusKey(job.Status), redis.Z{
		Score:  float64(job.EnqueuedAt.UnixMilli()),
		Member: job.ID,
	}).Err()
}

func (q *RedisQueue) SetStatus(ctx context.Context, id string, status JobStatus, jobErr string) error {
	job, err := q.Job(ctx, id)
	if err != nil {
		return err
	}

	if job.Status != status {
		if err := q.client.ZRem(ctx, statusKey(job.Status), id).Err(); err != nil {
			return fmt.Errorf("failed to leave status set: %w", err)
		}

		if err := q.client.ZAdd(ctx, statusKey(status), redis.Z{
			Score:  float64(job.EnqueuedAt.UnixMilli()),
			Member: id,
		}).Err(); err != nil {
			return fmt.Errorf("failed to join status set: %w", err)
		}
	}

	job.Status = status
	job.Error = jobErr
	job.UpdatedAt = time.Now().UTC()

	return q.write(ctx, job)
}

// Jobs returns jobs in any of the given statuses within the inclusive
// newest-first range [start, end].
func (q *RedisQueue) Jobs(ctx context.Context, statuses []JobStatus, start, end int64) ([]*Job, error) {
	ids := make([]string, 0)

	for _, status := range statuses {
		statusIDs, err := q.client.ZRevRange(ctx, statusKey(status), start, end).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to range status %s: %w", status, err)
		}

		ids = append(ids, statusIDs...)
	}

	jobs := make([]*Job, 0, len(ids))

	for _, id := range ids {
		job, err := q.Job(ctx, id)
		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				continue // expired blob, stale set member
			}

			return nil, err
		}

		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].EnqueuedAt.After(jobs[j].EnqueuedAt)
	})

	return jobs, nil
}

func (q *RedisQueue) Job(ctx context.Context, id string) (*Job, error) {
	data, err := q.client.Get(ctx, jobKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}

	return &job, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) write(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	return q.client.Set(ctx, jobKey(job.ID), data, 0).Err()
}
