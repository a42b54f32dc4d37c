package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence"
	"github.com/caravel-hq/caravel/pkg/runner"
)

const defaultRefreshInterval = 30 * time.Second

// scheduledPattern tracks the cron registration of one pattern so schedule
// edits can be detected between refreshes.
type scheduledPattern struct {
	entryID cron.EntryID
	spec    string
}

// Scheduler runs active patterns on their cron schedules. It polls the
// database for schedule changes instead of listening for events, so a
// restart always converges on the stored state.
type Scheduler struct {
	logger          *slog.Logger
	persistence     persistence.Persistence
	runner          *runner.Runner
	cron            *cron.Cron
	refreshInterval time.Duration

	mu      sync.Mutex
	entries map[string]scheduledPattern
}

func NewScheduler(logger *slog.Logger, p persistence.Persistence, testRunner *runner.Runner) *Scheduler {
	return &Scheduler{
		logger:          logger,
		persistence:     p,
		runner:          testRunner,
		cron:            cron.New(),
		refreshInterval: defaultRefreshInterval,
		entries:         make(map[string]scheduledPattern),
	}
}

// Start blocks until the context is canceled, refreshing the schedule set
// periodically.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}

	s.cron.Start()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			stopCtx := s.cron.Stop()
			<-stopCtx.Done()

			return nil
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Failed to refresh schedules", "error", err)
			}
		}
	}
}

// refresh reconciles cron entries with the stored set of active scheduled
// patterns.
func (s *Scheduler) refresh(ctx context.Context) error {
	patterns, err := s.listScheduledPatterns(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(patterns))

	for _, pattern := range patterns {
		seen[pattern.ID] = true

		existing, ok := s.entries[pattern.ID]
		if ok && existing.spec == pattern.Schedule {
			continue
		}

		if ok {
			s.cron.Remove(existing.entryID)
		}

		patternID := pattern.ID

		entryID, err := s.cron.AddFunc(pattern.Schedule, func() {
			s.runPattern(patternID)
		})
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping pattern with invalid schedule",
				"pattern_id", pattern.ID,
				"schedule", pattern.Schedule,
				"error", err)

			continue
		}

		s.entries[pattern.ID] = scheduledPattern{entryID: entryID, spec: pattern.Schedule}

		s.logger.InfoContext(ctx, "Scheduled pattern",
			"pattern_id", pattern.ID,
			"schedule", pattern.Schedule)
	}

	for patternID, entry := range s.entries {
		if seen[patternID] {
			continue
		}

		s.cron.Remove(entry.entryID)
		delete(s.entries, patternID)

		s.logger.InfoContext(ctx, "Unscheduled pattern", "pattern_id", patternID)
	}

	return nil
}

// listScheduledPatterns pages through all active patterns and keeps the
// ones carrying a schedule.
func (s *Scheduler) listScheduledPatterns(ctx context.Context) ([]*models.Pattern, error) {
	scheduled := make([]*models.Pattern, 0)
	offset := 0

	for {
		page, err := s.persistence.Patterns().List(ctx, persistence.ListPatternsOptions{
			Limit:      100,
			Offset:     offset,
			ActiveOnly: true,
		})
		if err != nil {
			return nil, err
		}

		for _, pattern := range page.Patterns {
			if pattern.Schedule != "" {
				scheduled = append(scheduled, pattern)
			}
		}

		if !page.HasNextPage || len(page.Patterns) == 0 {
			break
		}

		offset += len(page.Patterns)
	}

	return scheduled, nil
}

func (s *Scheduler) runPattern(patternID string) {
	ctx := context.Background()

	result, err := s.runner.Run(ctx, patternID, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled run failed to start",
			"pattern_id", patternID,
			"error", err)

		return
	}

	s.logger.InfoContext(ctx, "Scheduled run finished",
		"pattern_id", patternID,
		"test_result_id", result.ID,
		"status", result.Status,
		"duration_ms", result.DurationMs)
}
