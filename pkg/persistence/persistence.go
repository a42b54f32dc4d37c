// Package persistence provides the data storage abstraction for campaigns,
// patterns, and test results.
package persistence

import (
	"context"

	"github.com/caravel-hq/caravel/pkg/models"
)

// ListPatternsOptions controls filtering, sorting, and pagination of pattern
// listings.
type ListPatternsOptions struct {
	Limit      int
	Offset     int
	OwnerID    string
	CampaignID string
	ActiveOnly bool
	SortBy     string // created_at, updated_at, name, priority
	SortOrder  string // asc, desc
}

// PatternListResult is a page of patterns plus paging metadata.
type PatternListResult struct {
	Patterns    []*models.Pattern
	TotalCount  int64
	HasNextPage bool
}

// CampaignRepository stores campaigns.
type CampaignRepository interface {
	List(ctx context.Context, owner string) ([]*models.Campaign, error)
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Save(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id string) error
}

// PatternRepository stores patterns and their owned steps. Deleting a
// pattern cascades to its steps and results.
type PatternRepository interface {
	List(ctx context.Context, opts ListPatternsOptions) (*PatternListResult, error)
	GetByID(ctx context.Context, id string) (*models.Pattern, error)
	// GetWithEnabledSteps returns the pattern with steps pre-filtered to
	// enabled and pre-sorted ascending by sort position.
	GetWithEnabledSteps(ctx context.Context, id string) (*models.Pattern, error)
	Save(ctx context.Context, pattern *models.Pattern) error
	Delete(ctx context.Context, id string) error

	SaveStep(ctx context.Context, patternID string, step *models.Step) error
	DeleteStep(ctx context.Context, patternID, stepID string) error
	// ReorderSteps reassigns sort positions 1..n following the supplied order.
	ReorderSteps(ctx context.Context, patternID string, stepIDs []string) error
}

// TestResultRepository stores append-only test run records.
type TestResultRepository interface {
	// Create persists a new record already in RUNNING state.
	Create(ctx context.Context, patternID string, input map[string]any) (*models.TestResult, error)
	// Update applies the single terminal mutation of a record.
	Update(ctx context.Context, id string, update models.TestResultUpdate) (*models.TestResult, error)
	GetByID(ctx context.Context, id string) (*models.TestResult, error)
	// ListByPattern returns results newest first, capped at limit.
	ListByPattern(ctx context.Context, patternID string, limit int) ([]*models.TestResult, error)
}

type Persistence interface {
	Campaigns() CampaignRepository
	Patterns() PatternRepository
	TestResults() TestResultRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
