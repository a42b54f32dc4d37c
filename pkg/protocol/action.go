// Package protocol defines the contracts between the test-run engine and its
// action simulators.
package protocol

import (
	"context"
	"log/slog"

	"github.com/caravel-hq/caravel/pkg/models"
)

// Action is one executable step simulator. Execute returns the step's result
// document or an error describing why the step failed.
type Action interface {
	Execute(ctx context.Context, runCtx models.RunContext, logger *slog.Logger) (any, error)
}

// ActionFactory builds actions from a step's parsed configuration and
// publishes the JSON schema the API layer validates configurations against.
type ActionFactory interface {
	Create(config map[string]any) (Action, error)
	Kind() models.ActionKind
	Name() string
	Description() string
	Schema() map[string]any
}
