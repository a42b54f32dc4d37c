package services_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-hq/caravel/pkg/actions/delay"
	"github.com/caravel-hq/caravel/pkg/actions/notify"
	"github.com/caravel-hq/caravel/pkg/actions/validate"
	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence"
	"github.com/caravel-hq/caravel/pkg/persistence/file"
	"github.com/caravel-hq/caravel/pkg/registry"
	"github.com/caravel-hq/caravel/pkg/services"
)

func newPatternService(t *testing.T) *services.Pattern {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterAction(notify.NewActionFactory())
	reg.RegisterAction(validate.NewActionFactory())
	reg.RegisterAction(delay.NewActionFactory())

	return services.NewPattern(file.NewPersistence(t.TempDir()), reg)
}

func createPattern(t *testing.T, service *services.Pattern) *models.Pattern {
	t.Helper()

	pattern, err := service.Create(context.Background(), &models.Pattern{
		Name:  "Onboarding",
		Owner: "user-1",
	})
	require.NoError(t, err)

	return pattern
}

func TestPattern_Create(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)
	pattern := createPattern(t, service)

	assert.NotEmpty(t, pattern.ID)
	assert.Empty(t, pattern.Steps)
}

func TestPattern_Create_RequiresOwner(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)

	_, err := service.Create(context.Background(), &models.Pattern{Name: "No owner"})
	assert.ErrorIs(t, err, services.ErrEmptyOwnerID)
}

func TestPattern_Create_ValidatesSchedule(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)

	_, err := service.Create(context.Background(), &models.Pattern{
		Name:     "Bad schedule",
		Owner:    "user-1",
		Schedule: "not a cron line",
	})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))

	pattern, err := service.Create(context.Background(), &models.Pattern{
		Name:     "Nightly",
		Owner:    "user-1",
		Schedule: "0 3 * * *",
	})
	require.NoError(t, err)
	assert.Equal(t, "0 3 * * *", pattern.Schedule)
}

func TestPattern_AddStep_AssignsNextSortOrder(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)
	pattern := createPattern(t, service)

	first, err := service.AddStep(context.Background(), pattern.ID, &models.Step{
		Name:    "Notify",
		Action:  models.ActionNotify,
		Enabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.SortOrder)

	second, err := service.AddStep(context.Background(), pattern.ID, &models.Step{
		Name:    "Delay",
		Action:  models.ActionDelay,
		Enabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.SortOrder)
}

func TestPattern_AddStep_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)
	pattern := createPattern(t, service)

	_, err := service.AddStep(context.Background(), pattern.ID, &models.Step{
		Name:          "Bad delay",
		Action:        models.ActionDelay,
		Configuration: json.RawMessage(`{"delayMs":"soon"}`),
		Enabled:       true,
	})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
	assert.ErrorIs(t, err, services.ErrInvalidStepConfig)
}

func TestPattern_AddStep_RejectsMissingRequiredProperty(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)
	pattern := createPattern(t, service)

	// The validate schema marks "field" required.
	_, err := service.AddStep(context.Background(), pattern.ID, &models.Step{
		Name:    "Check",
		Action:  models.ActionValidate,
		Enabled: true,
	})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestPattern_AddStep_UnknownKindIsAccepted(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)
	pattern := createPattern(t, service)

	step, err := service.AddStep(context.Background(), pattern.ID, &models.Step{
		Name:    "Mystery",
		Action:  models.ActionKind("FOO"),
		Enabled: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, step.ID)
}

func TestPattern_AddStep_PatternNotFound(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)

	_, err := service.AddStep(context.Background(), "missing", &models.Step{
		Name:    "Notify",
		Action:  models.ActionNotify,
		Enabled: true,
	})
	assert.True(t, persistence.IsPatternNotFound(err))
}

func TestPattern_UpdateStep_StepNotFound(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)
	pattern := createPattern(t, service)

	_, err := service.UpdateStep(context.Background(), pattern.ID, &models.Step{
		ID:      "ghost",
		Name:    "Notify",
		Action:  models.ActionNotify,
		Enabled: true,
	})
	assert.True(t, persistence.IsStepNotFound(err))
}

func TestPattern_ReorderSteps_EmptyList(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)
	pattern := createPattern(t, service)

	err := service.ReorderSteps(context.Background(), pattern.ID, nil)
	assert.ErrorIs(t, err, services.ErrEmptyReorder)
}

func TestPattern_ListPatterns_Validation(t *testing.T) {
	t.Parallel()

	service := newPatternService(t)

	_, err := service.ListPatterns(context.Background(), services.ListPatternsRequest{SortBy: "owner"})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidSortField)

	_, err = service.ListPatterns(context.Background(), services.ListPatternsRequest{SortOrder: "sideways"})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidSortOrder)

	resp, err := service.ListPatterns(context.Background(), services.ListPatternsRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Patterns)
}
