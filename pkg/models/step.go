package models

import "encoding/json"

// ActionKind identifies the simulator an enabled step runs through.
type ActionKind string

const (
	ActionNotify    ActionKind = "NOTIFY"
	ActionValidate  ActionKind = "VALIDATE"
	ActionTransform ActionKind = "TRANSFORM"
	ActionWebhook   ActionKind = "WEBHOOK"
	ActionCondition ActionKind = "CONDITION"
	ActionDelay     ActionKind = "DELAY"
)

// KnownActionKinds lists every action kind the registry ships a factory for.
// Storage accepts other values; they fail at execution time instead.
func KnownActionKinds() []ActionKind {
	return []ActionKind{
		ActionNotify,
		ActionValidate,
		ActionTransform,
		ActionWebhook,
		ActionCondition,
		ActionDelay,
	}
}

// Step is one unit of work inside a pattern. Configuration is stored as raw
// JSON and parsed per run; a malformed configuration fails the run, not the
// process.
type Step struct {
	ID            string          `json:"id"`
	PatternID     string          `json:"pattern_id"`
	Name          string          `json:"name"          validate:"required,min=1"`
	Description   string          `json:"description,omitempty"`
	Action        ActionKind      `json:"action"        validate:"required"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
	SortOrder     int             `json:"sort_order"`
	Enabled       bool            `json:"enabled"`
}

// Config parses the step's stored configuration. A nil or empty configuration
// parses to an empty object.
func (s *Step) Config() (map[string]any, error) {
	if len(s.Configuration) == 0 {
		return map[string]any{}, nil
	}

	var config map[string]any
	if err := json.Unmarshal(s.Configuration, &config); err != nil {
		return nil, err
	}

	if config == nil {
		config = map[string]any{}
	}

	return config, nil
}
