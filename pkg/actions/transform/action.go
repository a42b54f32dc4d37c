// Package transform provides the data transformation step simulator. The
// configured transformation is echoed back rather than applied.
package transform

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
	return models.ActionTransform
}

func (f *ActionFactory) Name() string {
	return "Transform"
}

func (f *ActionFactory) Description() string {
	return "Simulates a data transformation. Always succeeds, echoing its configuration."
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return &Action{Config: config}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "Transformation expression, recorded as-is.",
			},
		},
	}
}

type Action struct {
	Config map[string]any
}

func (a *Action) Execute(_ context.Context, _ models.RunContext, logger *slog.Logger) (any, error) {
	logger.Info("Transformation simulated")

	return map[string]any{
		"transformed": true,
		"config":      a.Config,
	}, nil
}
