// Package runner implements the pattern test-run engine: it executes a
// pattern's enabled steps in order against an accumulating context and
// persists the result as an append-only record.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caravel-hq/caravel/pkg/eventbus"
	"github.com/caravel-hq/caravel/pkg/events"
	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/otelhelper"
	"github.com/caravel-hq/caravel/pkg/persistence"
	"github.com/caravel-hq/caravel/pkg/registry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Every dispatch pays this latency floor regardless of action kind, so
// duration behavior stays exercisable without a real external call.
const defaultBaseLatency = 100 * time.Millisecond

const defaultListLimit = 10

const tracerName = "caravel/runner"

type Runner struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	baseLatency time.Duration
}

type Option func(*Runner)

// WithPublisher makes the runner emit test lifecycle events.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(r *Runner) {
		r.publisher = publisher
	}
}

// WithBaseLatency overrides the simulated dispatch latency. Tests shrink it.
func WithBaseLatency(latency time.Duration) Option {
	return func(r *Runner) {
		r.baseLatency = latency
	}
}

func NewRunner(p persistence.Persistence, reg *registry.Registry, logger *slog.Logger, opts ...Option) *Runner {
	runner := &Runner{
		persistence: p,
		registry:    reg,
		logger:      logger,
		baseLatency: defaultBaseLatency,
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Run executes a pattern's enabled steps in sort order and returns the
// terminal test result. A missing pattern fails before any record is
// created; every failure after record creation is captured into the record's
// terminal state instead, so no record is ever left RUNNING.
func (r *Runner) Run(ctx context.Context, patternID string, input map[string]any) (*models.TestResult, error) {
	logger := r.logger.With("pattern_id", patternID)

	pattern, err := r.persistence.Patterns().GetWithEnabledSteps(ctx, patternID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pattern %s: %w", patternID, err)
	}

	result, err := r.persistence.TestResults().Create(ctx, patternID, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create test result: %w", err)
	}

	logger = logger.With("test_result_id", result.ID)
	logger.Info("Starting pattern test run", "enabled_steps", len(pattern.Steps))

	ctx, span := otelhelper.StartSpan(ctx, otel.Tracer(tracerName), "pattern.test.run",
		attribute.String(otelhelper.PatternIDKey, pattern.ID),
		attribute.String(otelhelper.PatternNameKey, pattern.Name),
		attribute.String(otelhelper.TestResultIDKey, result.ID),
	)
	defer span.End()

	r.publish(ctx, pattern.ID, events.PatternTestStarted{
		BaseEvent:    r.baseEvent(events.PatternTestStartedEvent, pattern.ID),
		TestResultID: result.ID,
		Input:        result.Input,
	})

	started := time.Now()
	runCtx := models.NewRunContext(result.Input)
	stepResults := make([]models.StepOutcome, 0, len(pattern.Steps))

	var (
		runErr     string
		failedStep string
	)

	for _, step := range pattern.Steps {
		outcome := r.dispatch(ctx, step, runCtx, logger)
		stepResults = append(stepResults, outcome)

		if !outcome.Success {
			// First failure aborts the run; later steps never execute.
			runErr = fmt.Sprintf("Step %q failed: %s", step.Name, outcome.Error)
			failedStep = step.Name

			break
		}

		runCtx.Record(step.SortOrder, outcome.Result)
	}

	durationMs := time.Since(started).Milliseconds()

	update := models.TestResultUpdate{DurationMs: durationMs}
	if runErr == "" {
		update.Status = models.TestStatusSuccess
		update.Output = &models.TestOutput{
			StepResults: stepResults,
			FinalOutput: runCtx.AsMap(),
		}
	} else {
		update.Status = models.TestStatusFailed
		update.Error = runErr
	}

	updated, err := r.persistence.TestResults().Update(ctx, result.ID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to persist test result %s: %w", result.ID, err)
	}

	if runErr == "" {
		logger.Info("Pattern test run succeeded", "duration_ms", durationMs, "steps", len(stepResults))
		r.publish(ctx, pattern.ID, events.PatternTestFinished{
			BaseEvent:    r.baseEvent(events.PatternTestFinishedEvent, pattern.ID),
			TestResultID: updated.ID,
			Status:       updated.Status,
			DurationMs:   durationMs,
			StepCount:    len(stepResults),
		})
	} else {
		logger.Info("Pattern test run failed", "duration_ms", durationMs, "error", runErr)
		otelhelper.SetError(span, errors.New(runErr))
		r.publish(ctx, pattern.ID, events.PatternTestFailed{
			BaseEvent:    r.baseEvent(events.PatternTestFailedEvent, pattern.ID),
			TestResultID: updated.ID,
			Error:        runErr,
			DurationMs:   durationMs,
			FailedStep:   failedStep,
		})
	}

	return updated, nil
}

// ListResults returns a pattern's test results, newest first. A non-positive
// limit falls back to the default of 10.
func (r *Runner) ListResults(ctx context.Context, patternID string, limit int) ([]*models.TestResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	if _, err := r.persistence.Patterns().GetByID(ctx, patternID); err != nil {
		return nil, err
	}

	return r.persistence.TestResults().ListByPattern(ctx, patternID, limit)
}

// dispatch runs one step through its action simulator and converts every
// possible failure into a step outcome.
func (r *Runner) dispatch(ctx context.Context, step *models.Step, runCtx models.RunContext, logger *slog.Logger) (outcome models.StepOutcome) {
	outcome = models.StepOutcome{
		StepID: step.ID,
		Name:   step.Name,
	}

	logger = logger.With(
		"step_id", step.ID,
		"step_name", step.Name,
		"action", step.Action,
		"sort_order", step.SortOrder,
	)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Step panicked", "panic", rec)
			outcome.Success = false
			outcome.Result = nil
			outcome.Error = fmt.Sprintf("unexpected error: %v", rec)
		}
	}()

	// Simulated processing latency, paid regardless of action kind.
	time.Sleep(r.baseLatency)

	config, err := step.Config()
	if err != nil {
		outcome.Error = fmt.Sprintf("invalid configuration: %v", err)

		return outcome
	}

	action, err := r.registry.CreateAction(step.Action, config)
	if err != nil {
		outcome.Error = err.Error()

		return outcome
	}

	result, err := action.Execute(ctx, runCtx, logger)
	if err != nil {
		outcome.Error = err.Error()

		return outcome
	}

	outcome.Success = true
	outcome.Result = result

	return outcome
}

func (r *Runner) publish(ctx context.Context, patternID string, event eventbus.Event) {
	if r.publisher == nil {
		return
	}

	if err := r.publisher.Publish(ctx, patternID, event); err != nil {
		r.logger.Error("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (r *Runner) baseEvent(eventType events.EventType, patternID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        "evt-" + uuid.New().String()[:8],
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		PatternID: patternID,
	}
}
