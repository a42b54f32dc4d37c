package registry_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-hq/caravel/pkg/actions/notify"
	"github.com/caravel-hq/caravel/pkg/actions/validate"
	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/registry"
)

func TestRegistry_CreateAction(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())
	reg.RegisterAction(notify.NewActionFactory())

	action, err := reg.CreateAction(models.ActionNotify, map[string]any{})
	require.NoError(t, err)
	assert.NotNil(t, action)
}

func TestRegistry_CreateAction_UnknownKind(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())
	reg.RegisterAction(notify.NewActionFactory())

	action, err := reg.CreateAction(models.ActionKind("FOO"), map[string]any{})
	require.Error(t, err)
	assert.Nil(t, action)
	assert.Equal(t, "Unknown action: FOO", err.Error())

	var unknown *registry.ErrUnknownAction

	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, models.ActionKind("FOO"), unknown.Kind)
}

func TestRegistry_ActionSchema(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())
	reg.RegisterAction(validate.NewActionFactory())

	schema, ok := reg.ActionSchema(models.ActionValidate)
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])

	_, ok = reg.ActionSchema(models.ActionDelay)
	assert.False(t, ok)
}

func TestRegistry_HealthCheck(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())

	message, ok := reg.HealthCheck()
	assert.False(t, ok)
	assert.Equal(t, "No action factories registered", message)

	reg.RegisterAction(notify.NewActionFactory())

	message, ok = reg.HealthCheck()
	assert.True(t, ok)
	assert.Equal(t, "1 action factories registered", message)
}
