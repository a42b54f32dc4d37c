// Package validate provides the field-presence validation step. It is the
// only built-in simulator with a real failure path.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/protocol"
)

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

type ActionFactory struct{}

func (f *ActionFactory) Kind() models.ActionKind {
	return models.ActionValidate
}

func (f *ActionFactory) Name() string {
	return "Validate"
}

func (f *ActionFactory) Description() string {
	return "Checks that a named field is present and truthy in the run input."
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	field, _ := config["field"].(string)

	return &Action{
		Field:    field,
		Required: isTruthy(config["required"]),
	}, nil
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{
				"type":        "string",
				"description": "Key looked up inside the run input object.",
			},
			"required": map[string]any{
				"type":        "boolean",
				"description": "When true, a missing or falsy field fails the step.",
			},
		},
		"required": []string{"field"},
	}
}

type Action struct {
	Field    string
	Required bool
}

func (a *Action) Execute(_ context.Context, runCtx models.RunContext, logger *slog.Logger) (any, error) {
	if a.Required && !isTruthy(runCtx.Input[a.Field]) {
		logger.Info("Required field missing", "field", a.Field)

		return nil, fmt.Errorf("Field %q is required", a.Field)
	}

	return map[string]any{
		"validated": true,
		"field":     a.Field,
	}, nil
}

// isTruthy mirrors JSON falsiness: absent, null, false, "", and 0 are falsy.
func isTruthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case float64:
		return value != 0
	case int:
		return value != 0
	case json.Number:
		f, err := value.Float64()

		return err != nil || f != 0
	default:
		return true
	}
}
