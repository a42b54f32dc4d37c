// Package registry holds the closed set of action factories the engine
// dispatches through.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/protocol"
)

// ErrUnknownAction is the lookup failure for an action kind no factory
// covers. The engine reports it verbatim in the step outcome.
type ErrUnknownAction struct {
	Kind models.ActionKind
}

func (e *ErrUnknownAction) Error() string {
	return fmt.Sprintf("Unknown action: %s", e.Kind)
}

type Registry struct {
	logger          *slog.Logger
	actionFactories map[models.ActionKind]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[models.ActionKind]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.Kind()] = factory
}

// CreateAction builds an action for the given kind. Unknown kinds fail with
// ErrUnknownAction; the run engine converts that into a failed step outcome
// rather than an infrastructure error.
func (r *Registry) CreateAction(kind models.ActionKind, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[kind]
	if !ok {
		return nil, &ErrUnknownAction{Kind: kind}
	}

	return factory.Create(config)
}

// ActionSchema returns the configuration schema for a registered kind.
func (r *Registry) ActionSchema(kind models.ActionKind) (map[string]any, bool) {
	factory, ok := r.actionFactories[kind]
	if !ok {
		return nil, false
	}

	return factory.Schema(), true
}

// ActionKinds returns the registered kinds.
func (r *Registry) ActionKinds() []models.ActionKind {
	kinds := make([]models.ActionKind, 0, len(r.actionFactories))
	for kind := range r.actionFactories {
		kinds = append(kinds, kind)
	}

	return kinds
}

// HealthCheck reports whether the registry carries any factories.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.actionFactories) == 0 {
		return "No action factories registered", false
	}

	return fmt.Sprintf("%d action factories registered", len(r.actionFactories)), true
}
