// Package delay provides the delay step. The requested duration is clamped
// to a ceiling before sleeping, but the unclamped value is reported back so
// callers see what was asked for.
package delay

import (
	"context"
	"log/slog"
	"time"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/protocol"
)

const (
	defaultDelayMs = 1000
	maxDelayMs     = 5000
)

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

type ActionFactory struct{}

func (f *ActionFactory) Kind() models.ActionKind {
	return models.ActionDelay
}

func (f *ActionFactory) Name() string {
	return "Delay"
}

func (f *ActionFactory) Description() string {
	return "Sleeps for the configured duration, capped at 5000ms."
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	delayMs := int64(defaultDelayMs)

	switch v := config["delayMs"].(type) {
	case float64:
		delayMs = int64(v)
	case int:
		delayMs = int64(v)
	case int64:
		delayMs = v
	}

	return &Action{DelayMs: delayMs, sleep: time.Sleep}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"delayMs": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Requested delay in milliseconds. Actual sleep is capped at 5000.",
			},
		},
	}
}

type Action struct {
	DelayMs int64

	sleep func(time.Duration)
}

func (a *Action) Execute(_ context.Context, _ models.RunContext, logger *slog.Logger) (any, error) {
	actual := min(a.DelayMs, maxDelayMs)

	logger.Info("Delaying", "requested_ms", a.DelayMs, "actual_ms", actual)

	if a.sleep == nil {
		a.sleep = time.Sleep
	}

	a.sleep(time.Duration(actual) * time.Millisecond)

	// The unclamped request is reported even though the sleep is capped.
	return map[string]any{
		"delayed": true,
		"ms":      a.DelayMs,
	}, nil
}
