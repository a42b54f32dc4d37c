// Package condition provides the condition step simulator. The condition is
// always reported as met.
package condition

import (
	"context"
	"log/slog"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/protocol"
)

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

type ActionFactory struct{}

func (f *ActionFactory) Kind() models.ActionKind {
	return models.ActionCondition
}

func (f *ActionFactory) Name() string {
	return "Condition"
}

func (f *ActionFactory) Description() string {
	return "Simulates a conditional check. Always succeeds with the condition met."
}

func (f *ActionFactory) Create(_ map[string]any) (protocol.Action, error) {
	return &Action{}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "Condition expression, recorded but not evaluated.",
			},
		},
	}
}

type Action struct{}

func (a *Action) Execute(_ context.Context, _ models.RunContext, _ *slog.Logger) (any, error) {
	return map[string]any{
		"conditionMet": true,
	}, nil
}
