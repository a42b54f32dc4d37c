// Package web provides HTTP handlers and REST API endpoints for campaign and
// pattern management.
package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/caravel-hq/caravel/pkg/auth"
	"github.com/caravel-hq/caravel/pkg/jobqueue"
	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence"
	"github.com/caravel-hq/caravel/pkg/registry"
	"github.com/caravel-hq/caravel/pkg/runner"
	"github.com/caravel-hq/caravel/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	campaignService *services.Campaign
	patternService  *services.Pattern
	runner          *runner.Runner
	jobQueue        jobqueue.Queue
	validator       *validator.Validate
	registry        *registry.Registry
}

func NewAPIHandlers(
	campaignService *services.Campaign,
	patternService *services.Pattern,
	testRunner *runner.Runner,
	jobQueue jobqueue.Queue,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		campaignService: campaignService,
		patternService:  patternService,
		runner:          testRunner,
		jobQueue:        jobQueue,
		validator:       validator,
		registry:        registry,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.patternService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Caravel API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Caravel API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// --- Campaigns ---

func (h *APIHandlers) GetCampaigns(c fiber.Ctx) error {
	campaigns, err := h.campaignService.List(c.Context(), c.Query("owner_id"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"campaigns": campaigns})
}

func (h *APIHandlers) GetCampaign(c fiber.Ctx) error {
	campaign, err := h.campaignService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(campaign)
}

func (h *APIHandlers) CreateCampaign(c fiber.Ctx) error {
	principal, ok := auth.FromContext(c)
	if !ok {
		return badRequest(c, "Missing principal")
	}

	var req CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	campaign := &models.Campaign{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.CampaignStatus(req.Status),
		Owner:       principal.ID,
	}

	created, err := h.campaignService.Create(c.Context(), campaign)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateCampaign(c fiber.Ctx) error {
	var req UpdateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.campaignService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Status != nil {
		existing.Status = models.CampaignStatus(*req.Status)
	}

	updated, err := h.campaignService.Update(c.Context(), existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteCampaign(c fiber.Ctx) error {
	if err := h.campaignService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// --- Patterns ---

func (h *APIHandlers) GetPatterns(c fiber.Ctx) error {
	req, err := h.parseListPatternsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.patternService.ListPatterns(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"patterns":      result.Patterns,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListPatternsRequest parses and validates query parameters for listing patterns.
func (h *APIHandlers) parseListPatternsRequest(c fiber.Ctx) (*services.ListPatternsRequest, error) {
	req := &services.ListPatternsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.OwnerID = c.Query("owner_id")
	req.CampaignID = c.Query("campaign_id")

	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return nil, err
		}

		req.ActiveOnly = active
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetPattern(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Pattern ID is required")
	}

	pattern, err := h.patternService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsPatternNotFound(err) {
			return notFound(c, "Pattern not found")
		}

		return internalError(c, err)
	}

	return c.JSON(pattern)
}

func (h *APIHandlers) CreatePattern(c fiber.Ctx) error {
	principal, ok := auth.FromContext(c)
	if !ok {
		return badRequest(c, "Missing principal")
	}

	var req CreatePatternRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	pattern := &models.Pattern{
		Name:          req.Name,
		Description:   req.Description,
		Active:        req.Active,
		Owner:         principal.ID,
		Priority:      req.Priority,
		Type:          req.Type,
		CampaignID:    req.CampaignID,
		SystemGroupID: req.SystemGroupID,
		Schedule:      req.Schedule,
	}

	created, err := h.patternService.Create(c.Context(), pattern)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdatePattern(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Pattern ID is required")
	}

	var req UpdatePatternRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.patternService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsPatternNotFound(err) {
			return notFound(c, "Pattern not found")
		}

		return internalError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Active != nil {
		existing.Active = *req.Active
	}

	if req.Priority != nil {
		existing.Priority = *req.Priority
	}

	if req.Type != nil {
		existing.Type = *req.Type
	}

	if req.CampaignID != nil {
		existing.CampaignID = req.CampaignID
	}

	if req.SystemGroupID != nil {
		existing.SystemGroupID = req.SystemGroupID
	}

	if req.Schedule != nil {
		existing.Schedule = *req.Schedule
	}

	updated, err := h.patternService.Update(c.Context(), existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeletePattern(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Pattern ID is required")
	}

	if err := h.patternService.Delete(c.Context(), id); err != nil {
		if persistence.IsPatternNotFound(err) {
			return notFound(c, "Pattern not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// --- Steps ---

func (h *APIHandlers) CreateStep(c fiber.Ctx) error {
	patternID := c.Params("id")

	var req CreateStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	step := &models.Step{
		Name:          req.Name,
		Description:   req.Description,
		Action:        models.ActionKind(req.Action),
		Configuration: req.Configuration,
		SortOrder:     req.SortOrder,
		Enabled:       enabled,
	}

	created, err := h.patternService.AddStep(c.Context(), patternID, step)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateStep(c fiber.Ctx) error {
	patternID := c.Params("id")
	stepID := c.Params("stepId")

	var req UpdateStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	pattern, err := h.patternService.FetchByID(c.Context(), patternID)
	if err != nil {
		return handleServiceError(c, err)
	}

	existing, ok := pattern.FindStep(stepID)
	if !ok {
		return notFound(c, "Step not found")
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Action != nil {
		existing.Action = models.ActionKind(*req.Action)
	}

	if req.Configuration != nil {
		existing.Configuration = req.Configuration
	}

	if req.SortOrder != nil {
		existing.SortOrder = *req.SortOrder
	}

	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}

	updated, err := h.patternService.UpdateStep(c.Context(), patternID, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteStep(c fiber.Ctx) error {
	if err := h.patternService.DeleteStep(c.Context(), c.Params("id"), c.Params("stepId")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ReorderSteps(c fiber.Ctx) error {
	var req ReorderStepsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.patternService.ReorderSteps(c.Context(), c.Params("id"), req.StepIDs); err != nil {
		return handleServiceError(c, err)
	}

	pattern, err := h.patternService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(pattern)
}

// --- Test runs ---

// RunTest executes a pattern's enabled steps. The response is 200 whether
// the run succeeds or fails; the result's status field tells which. Only
// request-level problems produce HTTP errors.
func (h *APIHandlers) RunTest(c fiber.Ctx) error {
	patternID := c.Params("id")
	if patternID == "" {
		return badRequest(c, "Pattern ID is required")
	}

	var req RunTestRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	result, err := h.runner.Run(c.Context(), patternID, req.Input)
	if err != nil {
		if persistence.IsPatternNotFound(err) {
			return notFound(c, "Pattern not found")
		}

		return internalError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetTestResults(c fiber.Ctx) error {
	patternID := c.Params("id")
	if patternID == "" {
		return badRequest(c, "Pattern ID is required")
	}

	limit := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid limit parameter")
		}

		limit = parsed
	}

	results, err := h.runner.ListResults(c.Context(), patternID, limit)
	if err != nil {
		if persistence.IsPatternNotFound(err) {
			return notFound(c, "Pattern not found")
		}

		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"results": results})
}

// --- Jobs ---

func (h *APIHandlers) GetJobs(c fiber.Ctx) error {
	statuses := []jobqueue.JobStatus{
		jobqueue.JobStatusWaiting,
		jobqueue.JobStatusActive,
		jobqueue.JobStatusCompleted,
		jobqueue.JobStatusFailed,
		jobqueue.JobStatusDelayed,
	}

	if statusParam := c.Query("status"); statusParam != "" {
		statuses = statuses[:0]
		for _, s := range strings.Split(statusParam, ",") {
			statuses = append(statuses, jobqueue.JobStatus(strings.TrimSpace(s)))
		}
	}

	start := int64(0)
	end := int64(49)

	if startStr := c.Query("start"); startStr != "" {
		parsed, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			return badRequest(c, "Invalid start parameter")
		}

		start = parsed
	}

	if endStr := c.Query("end"); endStr != "" {
		parsed, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return badRequest(c, "Invalid end parameter")
		}

		end = parsed
	}

	jobs, err := h.jobQueue.Jobs(c.Context(), statuses, start, end)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"jobs": jobs})
}

func (h *APIHandlers) GetJob(c fiber.Ctx) error {
	job, err := h.jobQueue.Job(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(job)
}

// --- Actions catalog ---

// GetActions lists the registered action kinds and their config schemas, so
// the dashboard can render step editors.
func (h *APIHandlers) GetActions(c fiber.Ctx) error {
	kinds := h.registry.ActionKinds()
	actions := make([]fiber.Map, 0, len(kinds))

	for _, kind := range kinds {
		schema, _ := h.registry.ActionSchema(kind)
		actions = append(actions, fiber.Map{
			"kind":   kind,
			"schema": schema,
		})
	}

	return c.JSON(fiber.Map{"actions": actions})
}
