package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence"
	"github.com/caravel-hq/caravel/pkg/registry"
	"github.com/robfig/cron/v3"
	"github.com/xeipuuv/gojsonschema"
)

// Pattern is the service for pattern and step management.
type Pattern struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

// NewPattern creates a new pattern service.
func NewPattern(p persistence.Persistence, reg *registry.Registry) *Pattern {
	return &Pattern{persistence: p, registry: reg}
}

// HealthCheck checks the health of the persistence layer.
func (s *Pattern) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListPatternsRequest contains options for listing patterns.
type ListPatternsRequest struct {
	Limit      int `validate:"min=0,max=100"`
	Offset     int `validate:"min=0"`
	OwnerID    string
	CampaignID string
	ActiveOnly bool
	SortBy     string
	SortOrder  string
}

// ListPatternsResponse contains the result of listing patterns.
type ListPatternsResponse struct {
	Patterns    []*models.Pattern `json:"patterns"`
	TotalCount  int64             `json:"total_count"`
	HasNextPage bool              `json:"has_next_page"`
}

// ListPatterns retrieves patterns with filtering, sorting, and pagination.
func (s *Pattern) ListPatterns(ctx context.Context, req ListPatternsRequest) (*ListPatternsResponse, error) {
	if err := s.validateListRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	result, err := s.persistence.Patterns().List(ctx, persistence.ListPatternsOptions{
		Limit:      req.Limit,
		Offset:     req.Offset,
		OwnerID:    req.OwnerID,
		CampaignID: req.CampaignID,
		ActiveOnly: req.ActiveOnly,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}

	return &ListPatternsResponse{
		Patterns:    result.Patterns,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

func (s *Pattern) validateListRequest(req *ListPatternsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	switch req.SortBy {
	case "created_at", "updated_at", "name", "priority":
	default:
		return ErrInvalidSortField
	}

	switch strings.ToLower(req.SortOrder) {
	case "asc", "desc":
		req.SortOrder = strings.ToLower(req.SortOrder)
	default:
		return ErrInvalidSortOrder
	}

	return nil
}

// FetchByID returns one pattern with all its steps.
func (s *Pattern) FetchByID(ctx context.Context, id string) (*models.Pattern, error) {
	return s.persistence.Patterns().GetByID(ctx, id)
}

// Create persists a new pattern. Steps are added separately.
func (s *Pattern) Create(ctx context.Context, pattern *models.Pattern) (*models.Pattern, error) {
	if pattern == nil {
		return nil, ErrPatternNil
	}

	if strings.TrimSpace(pattern.Owner) == "" {
		return nil, ErrEmptyOwnerID
	}

	if err := s.validateSchedule(pattern.Schedule); err != nil {
		return nil, err
	}

	pattern.Steps = []*models.Step{}

	if err := s.persistence.Patterns().Save(ctx, pattern); err != nil {
		return nil, fmt.Errorf("failed to save pattern: %w", err)
	}

	return pattern, nil
}

// Update persists a mutated pattern. The handler applies partial updates
// before calling in.
func (s *Pattern) Update(ctx context.Context, pattern *models.Pattern) (*models.Pattern, error) {
	if pattern == nil {
		return nil, ErrPatternNil
	}

	if err := s.validateSchedule(pattern.Schedule); err != nil {
		return nil, err
	}

	if err := s.persistence.Patterns().Save(ctx, pattern); err != nil {
		return nil, fmt.Errorf("failed to save pattern: %w", err)
	}

	return pattern, nil
}

// Delete removes a pattern. Owned steps and results cascade at the storage
// layer.
func (s *Pattern) Delete(ctx context.Context, id string) error {
	return s.persistence.Patterns().Delete(ctx, id)
}

// AddStep appends a step to a pattern. When the action kind is one the
// registry knows, the configuration is validated against its schema here at
// the boundary; unknown kinds are accepted and fail at execution time.
func (s *Pattern) AddStep(ctx context.Context, patternID string, step *models.Step) (*models.Step, error) {
	pattern, err := s.persistence.Patterns().GetByID(ctx, patternID)
	if err != nil {
		return nil, err
	}

	if err := s.validateStepConfig(step); err != nil {
		return nil, err
	}

	if step.SortOrder == 0 {
		step.SortOrder = nextSortOrder(pattern.Steps)
	}

	if err := s.persistence.Patterns().SaveStep(ctx, patternID, step); err != nil {
		return nil, err
	}

	return step, nil
}

// UpdateStep replaces an existing step.
func (s *Pattern) UpdateStep(ctx context.Context, patternID string, step *models.Step) (*models.Step, error) {
	pattern, err := s.persistence.Patterns().GetByID(ctx, patternID)
	if err != nil {
		return nil, err
	}

	if _, ok := pattern.FindStep(step.ID); !ok {
		return nil, persistence.ErrStepNotFound
	}

	if err := s.validateStepConfig(step); err != nil {
		return nil, err
	}

	if err := s.persistence.Patterns().SaveStep(ctx, patternID, step); err != nil {
		return nil, err
	}

	return step, nil
}

// DeleteStep removes a step from a pattern.
func (s *Pattern) DeleteStep(ctx context.Context, patternID, stepID string) error {
	return s.persistence.Patterns().DeleteStep(ctx, patternID, stepID)
}

// ReorderSteps reassigns sort positions following the supplied step id order.
func (s *Pattern) ReorderSteps(ctx context.Context, patternID string, stepIDs []string) error {
	if len(stepIDs) == 0 {
		return ErrEmptyReorder
	}

	return s.persistence.Patterns().ReorderSteps(ctx, patternID, stepIDs)
}

func (s *Pattern) validateStepConfig(step *models.Step) error {
	schema, known := s.registry.ActionSchema(step.Action)
	if !known {
		// Unknown kinds are a storage-time no-op; the run engine reports them.
		return nil
	}

	config := step.Configuration
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewBytesLoader(config),
	)
	if err != nil {
		return NewValidationError("AddStep", "invalid_step_config", err.Error(), ErrInvalidStepConfig)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return NewValidationError("AddStep", "invalid_step_config", strings.Join(details, "; "), ErrInvalidStepConfig)
	}

	return nil
}

func (s *Pattern) validateSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return NewValidationError("Save", "invalid_schedule", err.Error(), ErrInvalidSchedule)
	}

	return nil
}

func nextSortOrder(steps []*models.Step) int {
	next := 1

	for _, step := range steps {
		if step.SortOrder >= next {
			next = step.SortOrder + 1
		}
	}

	return next
}
