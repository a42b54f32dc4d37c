package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-hq/caravel/pkg/channels/gochannel"
	"github.com/caravel-hq/caravel/pkg/cmd"
	"github.com/caravel-hq/caravel/pkg/eventbus"
	"github.com/caravel-hq/caravel/pkg/jobqueue"
	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence/file"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	api := NewAPI(
		slog.Default(),
		file.NewPersistence(t.TempDir()),
		cmd.NewRegistry(slog.Default()),
		bus,
		jobqueue.NewMemoryQueue(),
	)

	return api.App()
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload any) *http.Response {
	t.Helper()

	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("X-Caravel-Principal", "user-1")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 0})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	})

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func createTestPattern(t *testing.T, app *fiber.App) models.Pattern {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/patterns", map[string]any{
		"name": "Welcome flow",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var pattern models.Pattern

	decodeBody(t, resp, &pattern)

	return pattern
}

func addTestStep(t *testing.T, app *fiber.App, patternID string, payload map[string]any) models.Step {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/patterns/"+patternID+"/steps", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var step models.Step

	decodeBody(t, resp, &step)

	return step
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Caravel API", string(body))
}

func TestAPI_MissingPrincipalIsRejected(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/patterns", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_CreateAndGetPattern(t *testing.T) {
	app := setupTestApp(t)

	pattern := createTestPattern(t, app)
	assert.Equal(t, "Welcome flow", pattern.Name)
	assert.Equal(t, "user-1", pattern.Owner)

	resp := doJSON(t, app, http.MethodGet, "/patterns/"+pattern.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_GetPattern_NotFound(t *testing.T) {
	app := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/patterns/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CreateStep_InvalidConfigRejected(t *testing.T) {
	app := setupTestApp(t)
	pattern := createTestPattern(t, app)

	resp := doJSON(t, app, http.MethodPost, "/patterns/"+pattern.ID+"/steps", map[string]any{
		"name":          "Bad delay",
		"action":        "DELAY",
		"configuration": map[string]any{"delayMs": "soon"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RunTest_SuccessfulFlow(t *testing.T) {
	app := setupTestApp(t)
	pattern := createTestPattern(t, app)

	addTestStep(t, app, pattern.ID, map[string]any{
		"name":       "Send welcome",
		"action":     "NOTIFY",
		"sort_order": 1,
	})
	addTestStep(t, app, pattern.ID, map[string]any{
		"name":          "Check email",
		"action":        "VALIDATE",
		"configuration": map[string]any{"field": "email", "required": true},
		"sort_order":    2,
	})

	resp := doJSON(t, app, http.MethodPost, "/patterns/"+pattern.ID+"/test", map[string]any{
		"input": map[string]any{"email": "ann@example.com"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.TestResult

	decodeBody(t, resp, &result)
	assert.Equal(t, models.TestStatusSuccess, result.Status)
	require.NotNil(t, result.Output)
	require.Len(t, result.Output.StepResults, 2)
	assert.Equal(t, map[string]any{"validated": true, "field": "email"}, result.Output.FinalOutput["step_2"])
}

func TestAPI_RunTest_FailureStillReturns200(t *testing.T) {
	app := setupTestApp(t)
	pattern := createTestPattern(t, app)

	addTestStep(t, app, pattern.ID, map[string]any{
		"name":          "Check email",
		"action":        "VALIDATE",
		"configuration": map[string]any{"field": "email", "required": true},
		"sort_order":    1,
	})

	resp := doJSON(t, app, http.MethodPost, "/patterns/"+pattern.ID+"/test", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.TestResult

	decodeBody(t, resp, &result)
	assert.Equal(t, models.TestStatusFailed, result.Status)
	assert.Equal(t, `Step "Check email" failed: Field "email" is required`, result.Error)
}

func TestAPI_RunTest_PatternNotFound(t *testing.T) {
	app := setupTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/patterns/missing/test", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_GetTestResults(t *testing.T) {
	app := setupTestApp(t)
	pattern := createTestPattern(t, app)

	for range 3 {
		resp := doJSON(t, app, http.MethodPost, "/patterns/"+pattern.ID+"/test", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := doJSON(t, app, http.MethodGet, "/patterns/"+pattern.ID+"/results?limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Results []models.TestResult `json:"results"`
	}

	decodeBody(t, resp, &payload)
	assert.Len(t, payload.Results, 2)
}

func TestAPI_ReorderSteps(t *testing.T) {
	app := setupTestApp(t)
	pattern := createTestPattern(t, app)

	first := addTestStep(t, app, pattern.ID, map[string]any{
		"name":       "First",
		"action":     "NOTIFY",
		"sort_order": 1,
	})
	second := addTestStep(t, app, pattern.ID, map[string]any{
		"name":       "Second",
		"action":     "NOTIFY",
		"sort_order": 2,
	})

	resp := doJSON(t, app, http.MethodPut, "/patterns/"+pattern.ID+"/steps/reorder", map[string]any{
		"step_ids": []string{second.ID, first.ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Pattern

	decodeBody(t, resp, &updated)
	require.Len(t, updated.Steps, 2)

	reordered, ok := updated.FindStep(second.ID)
	require.True(t, ok)
	assert.Equal(t, 1, reordered.SortOrder)
}

func TestAPI_Campaigns_CRUD(t *testing.T) {
	app := setupTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/campaigns", map[string]any{
		"name": "Summer launch",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var campaign models.Campaign

	decodeBody(t, resp, &campaign)
	assert.Equal(t, models.CampaignStatusDraft, campaign.Status)

	resp = doJSON(t, app, http.MethodPatch, "/campaigns/"+campaign.ID, map[string]any{
		"status": "active",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/campaigns/"+campaign.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_GetJobs(t *testing.T) {
	app := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/jobs?status=waiting,active", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Jobs []jobqueue.Job `json:"jobs"`
	}

	decodeBody(t, resp, &payload)
	assert.Empty(t, payload.Jobs)
}

func TestAPI_GetJob_NotFound(t *testing.T) {
	app := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/jobs/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_GetActions(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/actions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Actions []struct {
			Kind   string         `json:"kind"`
			Schema map[string]any `json:"schema"`
		} `json:"actions"`
	}

	decodeBody(t, resp, &payload)
	assert.Len(t, payload.Actions, 6)
}
