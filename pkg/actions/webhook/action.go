// Package webhook provides the webhook step simulator. No network call is
// made; the configured URL is reported back.
package webhook

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
	return models.ActionWebhook
}

func (f *ActionFactory) Name() string {
	return "Webhook"
}

func (f *ActionFactory) Description() string {
	return "Simulates an outbound webhook call. Always succeeds."
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return &Action{URL: config["url"]}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"format":      "uri",
				"description": "Webhook endpoint, reported in the result.",
			},
		},
	}
}

type Action struct {
	URL any
}

func (a *Action) Execute(_ context.Context, _ models.RunContext, logger *slog.Logger) (any, error) {
	logger.Info("Webhook call simulated", "url", a.URL)

	return map[string]any{
		"webhookCalled": true,
		"url":           a.URL,
	}, nil
}
