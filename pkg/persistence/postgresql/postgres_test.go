//go:build integration
// +build integration

package postgresql

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence"
)

var postgresContainer *postgres.PostgresContainer

func TestMain(m *testing.M) {
	code := m.Run()

	if postgresContainer != nil {
		_ = postgresContainer.Terminate(context.Background())
	}

	os.Exit(code)
}

// setupTestDB creates a test PostgreSQL database for testing.
func setupTestDB(t *testing.T) (*Persistence, context.Context) {
	ctx := context.Background()

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error
		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("caravel_test"),
			postgres.WithUsername("caravel"),
			postgres.WithPassword("caravel"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	cleanupDB(t, p)

	return p, ctx
}

func cleanupDB(t *testing.T, p *Persistence) {
	ctx := context.Background()

	for _, table := range []string{"test_results", "pattern_steps", "patterns", "campaigns"} {
		_, err := p.db.ExecContext(ctx, "DELETE FROM "+table)
		require.NoError(t, err)
	}
}

func TestPersistence_HealthCheck(t *testing.T) {
	p, ctx := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}

func TestCampaignRepository_SaveAndList(t *testing.T) {
	p, ctx := setupTestDB(t)

	campaign := &models.Campaign{Name: "Summer launch", Owner: "user-1"}
	require.NoError(t, p.Campaigns().Save(ctx, campaign))
	assert.NotEmpty(t, campaign.ID)
	assert.Equal(t, models.CampaignStatusDraft, campaign.Status)

	campaigns, err := p.Campaigns().List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, campaign.ID, campaigns[0].ID)

	other, err := p.Campaigns().List(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCampaignRepository_Delete(t *testing.T) {
	p, ctx := setupTestDB(t)

	campaign := &models.Campaign{Name: "Short lived", Owner: "user-1"}
	require.NoError(t, p.Campaigns().Save(ctx, campaign))

	require.NoError(t, p.Campaigns().Delete(ctx, campaign.ID))

	_, err := p.Campaigns().GetByID(ctx, campaign.ID)
	assert.True(t, persistence.IsCampaignNotFound(err))

	err = p.Campaigns().Delete(ctx, campaign.ID)
	assert.True(t, persistence.IsCampaignNotFound(err))
}

func TestPatternRepository_SaveAndGet(t *testing.T) {
	p, ctx := setupTestDB(t)

	pattern := &models.Pattern{
		Name:  "Onboarding",
		Owner: "user-1",
		Steps: []*models.Step{
			{Name: "Notify", Action: models.ActionNotify, SortOrder: 1, Enabled: true},
			{Name: "Validate", Action: models.ActionValidate, SortOrder: 2, Enabled: false},
		},
	}
	require.NoError(t, p.Patterns().Save(ctx, pattern))

	loaded, err := p.Patterns().GetByID(ctx, pattern.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Steps, 2)
	assert.Equal(t, pattern.ID, loaded.Steps[0].PatternID)

	enabled, err := p.Patterns().GetWithEnabledSteps(ctx, pattern.ID)
	require.NoError(t, err)
	require.Len(t, enabled.Steps, 1)
	assert.Equal(t, "Notify", enabled.Steps[0].Name)
}

func TestPatternRepository_Delete_SoftDeletes(t *testing.T) {
	p, ctx := setupTestDB(t)

	pattern := &models.Pattern{Name: "Onboarding", Owner: "user-1"}
	require.NoError(t, p.Patterns().Save(ctx, pattern))

	require.NoError(t, p.Patterns().Delete(ctx, pattern.ID))

	_, err := p.Patterns().GetByID(ctx, pattern.ID)
	assert.True(t, persistence.IsPatternNotFound(err))

	err = p.Patterns().Delete(ctx, pattern.ID)
	assert.True(t, persistence.IsPatternNotFound(err))
}

func TestPatternRepository_List_Paging(t *testing.T) {
	p, ctx := setupTestDB(t)

	for range 3 {
		pattern := &models.Pattern{Name: "Pattern", Owner: "user-1"}
		require.NoError(t, p.Patterns().Save(ctx, pattern))
	}

	page, err := p.Patterns().List(ctx, persistence.ListPatternsOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Patterns, 2)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.True(t, page.HasNextPage)

	rest, err := p.Patterns().List(ctx, persistence.ListPatternsOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest.Patterns, 1)
	assert.False(t, rest.HasNextPage)
}

func TestTestResultRepository_Lifecycle(t *testing.T) {
	p, ctx := setupTestDB(t)

	pattern := &models.Pattern{Name: "Onboarding", Owner: "user-1"}
	require.NoError(t, p.Patterns().Save(ctx, pattern))

	result, err := p.TestResults().Create(ctx, pattern.ID, map[string]any{"email": "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.TestStatusRunning, result.Status)

	updated, err := p.TestResults().Update(ctx, result.ID, models.TestResultUpdate{
		Status: models.TestStatusSuccess,
		Output: &models.TestOutput{
			StepResults: []models.StepOutcome{},
			FinalOutput: map[string]any{"input": map[string]any{"email": "ann@example.com"}},
		},
		DurationMs: 42,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TestStatusSuccess, updated.Status)
	require.NotNil(t, updated.Output)
	assert.Equal(t, int64(42), updated.DurationMs)

	_, err = p.TestResults().Update(ctx, result.ID, models.TestResultUpdate{Status: models.TestStatusFailed})
	assert.ErrorIs(t, err, persistence.ErrTestResultTerminal)

	results, err := p.TestResults().ListByPattern(ctx, pattern.ID, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestTestResultRepository_Create_PatternNotFound(t *testing.T) {
	p, ctx := setupTestDB(t)

	_, err := p.TestResults().Create(ctx, "11111111-1111-7111-8111-111111111111", nil)
	assert.True(t, persistence.IsPatternNotFound(err))
}
