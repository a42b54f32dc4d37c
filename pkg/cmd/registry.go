// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/caravel-hq/caravel/pkg/actions/condition"
	"github.com/caravel-hq/caravel/pkg/actions/delay"
	"github.com/caravel-hq/caravel/pkg/actions/notify"
	"github.com/caravel-hq/caravel/pkg/actions/transform"
	"github.com/caravel-hq/caravel/pkg/actions/validate"
	"github.com/caravel-hq/caravel/pkg/actions/webhook"
	"github.com/caravel-hq/caravel/pkg/registry"
)

func registerNativeActions(reg *registry.Registry) {
	reg.RegisterAction(notify.NewActionFactory())
	reg.RegisterAction(validate.NewActionFactory())
	reg.RegisterAction(transform.NewActionFactory())
	reg.RegisterAction(webhook.NewActionFactory())
	reg.RegisterAction(condition.NewActionFactory())
	reg.RegisterAction(delay.NewActionFactory())
}

// NewRegistry builds the action registry with all native action factories.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	registerNativeActions(reg)

	return reg
}
