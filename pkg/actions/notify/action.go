// Package notify provides the notification step simulator. It never fails
// and makes no real delivery.
package notify

import (
	"context"
	"log/slog"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/protocol"
)

const defaultMessage = "Notification sent"

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

type ActionFactory struct{}

func (f *ActionFactory) Kind() models.ActionKind {
	return models.ActionNotify
}

func (f *ActionFactory) Name() string {
	return "Notify"
}

func (f *ActionFactory) Description() string {
	return "Simulates sending a notification. Always succeeds."
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	message := defaultMessage
	if m, ok := config["message"].(string); ok {
		message = m
	}

	return &Action{Message: message}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Notification text echoed back in the result.",
			},
		},
	}
}

type Action struct {
	Message string
}

func (a *Action) Execute(_ context.Context, _ models.RunContext, logger *slog.Logger) (any, error) {
	logger.Info("Notification simulated", "message", a.Message)

	return map[string]any{
		"notified": true,
		"message":  a.Message,
	}, nil
}
