package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence"
	"github.com/google/uuid"
)

// PatternRepository handles pattern file operations. A pattern file embeds
// the pattern's steps, so step mutations rewrite the whole file.
type PatternRepository struct {
	root string
}

// NewPatternRepository creates a new pattern repository.
func NewPatternRepository(root string) *PatternRepository {
	return &PatternRepository{root: root}
}

func (pr *PatternRepository) dir() string {
	return path.Join(pr.root, "patterns")
}

func (pr *PatternRepository) filePath(id string) string {
	return path.Join(pr.dir(), id+".json")
}

// List returns paginated and filtered patterns with in-memory operations.
func (pr *PatternRepository) List(ctx context.Context, opts persistence.ListPatternsOptions) (*persistence.PatternListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"priority":   true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	jsonFiles, err := fs.Glob(os.DirFS(pr.dir()), "*.json")
	if err != nil || len(jsonFiles) == 0 {
		return &persistence.PatternListResult{Patterns: []*models.Pattern{}}, nil
	}

	filtered := make([]*models.Pattern, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		pattern, err := pr.GetByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, fmt.Errorf("failed to load pattern from %s: %w", file, err)
		}

		if opts.OwnerID != "" && pattern.Owner != opts.OwnerID {
			continue
		}

		if opts.CampaignID != "" && (pattern.CampaignID == nil || *pattern.CampaignID != opts.CampaignID) {
			continue
		}

		if opts.ActiveOnly && !pattern.Active {
			continue
		}

		filtered = append(filtered, pattern)
	}

	sortPatterns(filtered, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(filtered))
	start := opts.Offset

	if start > len(filtered) {
		start = len(filtered)
	}

	end := start + opts.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return &persistence.PatternListResult{
		Patterns:    filtered[start:end],
		TotalCount:  totalCount,
		HasNextPage: end < len(filtered),
	}, nil
}

func sortPatterns(patterns []*models.Pattern, sortBy, sortOrder string) {
	less := func(i, j int) bool {
		switch sortBy {
		case "name":
			return strings.ToLower(patterns[i].Name) < strings.ToLower(patterns[j].Name)
		case "priority":
			return patterns[i].Priority < patterns[j].Priority
		case "updated_at":
			return patterns[i].UpdatedAt.Before(patterns[j].UpdatedAt)
		default:
			return patterns[i].CreatedAt.Before(patterns[j].CreatedAt)
		}
	}

	if sortOrder == "desc" {
		sort.SliceStable(patterns, func(i, j int) bool { return less(j, i) })
	} else {
		sort.SliceStable(patterns, less)
	}
}

func (pr *PatternRepository) GetByID(_ context.Context, id string) (*models.Pattern, error) {
	data, err := os.ReadFile(pr.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrPatternNotFound
		}

		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}

	var pattern models.Pattern
	if err := json.Unmarshal(data, &pattern); err != nil {
		return nil, fmt.Errorf("failed to decode pattern %s: %w", id, err)
	}

	if pattern.Steps == nil {
		pattern.Steps = []*models.Step{}
	}

	return &pattern, nil
}

// GetWithEnabledSteps returns the pattern with steps filtered to enabled and
// sorted ascending by sort position.
func (pr *PatternRepository) GetWithEnabledSteps(ctx context.Context, id string) (*models.Pattern, error) {
	pattern, err := pr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pattern.Steps = pattern.EnabledSteps()

	return pattern, nil
}

func (pr *PatternRepository) Save(_ context.Context, pattern *models.Pattern) error {
	now := time.Now().UTC()

	if pattern.CreatedAt.IsZero() {
		pattern.CreatedAt = now
	}

	pattern.UpdatedAt = now

	if pattern.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate pattern ID: %w", err)
		}

		pattern.ID = id.String()
	}

	if pattern.Steps == nil {
		pattern.Steps = []*models.Step{}
	}

	if err := checkSortOrders(pattern.Steps); err != nil {
		return persistence.NewPatternError("Save", pattern.ID, err)
	}

	for _, step := range pattern.Steps {
		step.PatternID = pattern.ID
	}

	if err := os.MkdirAll(pr.dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create patterns directory: %w", err)
	}

	data, err := json.MarshalIndent(pattern, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pattern: %w", err)
	}

	if err := os.WriteFile(pr.filePath(pattern.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write pattern file: %w", err)
	}

	return nil
}

// Delete removes the pattern file and its result directory. Steps live
// inside the pattern file, so the cascade is implicit.
func (pr *PatternRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(pr.filePath(id))
	if os.IsNotExist(err) {
		return persistence.ErrPatternNotFound
	}

	if err != nil {
		return err
	}

	return os.RemoveAll(path.Join(pr.root, "results", id))
}

func (pr *PatternRepository) SaveStep(ctx context.Context, patternID string, step *models.Step) error {
	pattern, err := pr.GetByID(ctx, patternID)
	if err != nil {
		return err
	}

	if step.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate step ID: %w", err)
		}

		step.ID = id.String()
	}

	step.PatternID = patternID

	replaced := false

	for i, existing := range pattern.Steps {
		if existing.ID == step.ID {
			pattern.Steps[i] = step
			replaced = true

			break
		}
	}

	if !replaced {
		pattern.Steps = append(pattern.Steps, step)
	}

	return pr.Save(ctx, pattern)
}

func (pr *PatternRepository) DeleteStep(ctx context.Context, patternID, stepID string) error {
	pattern, err := pr.GetByID(ctx, patternID)
	if err != nil {
		return err
	}

	for i, step := range pattern.Steps {
		if step.ID == stepID {
			pattern.Steps = append(pattern.Steps[:i], pattern.Steps[i+1:]...)

			return pr.Save(ctx, pattern)
		}
	}

	return persistence.ErrStepNotFound
}

// ReorderSteps reassigns sort positions 1..n following the supplied order.
// Every supplied ID must belong to the pattern.
func (pr *PatternRepository) ReorderSteps(ctx context.Context, patternID string, stepIDs []string) error {
	pattern, err := pr.GetByID(ctx, patternID)
	if err != nil {
		return err
	}

	for position, stepID := range stepIDs {
		step, ok := pattern.FindStep(stepID)
		if !ok {
			return &persistence.StepError{Op: "ReorderSteps", PatternID: patternID, StepID: stepID, Err: persistence.ErrStepNotFound}
		}

		step.SortOrder = position + 1
	}

	return pr.Save(ctx, pattern)
}

func checkSortOrders(steps []*models.Step) error {
	seen := make(map[int]bool, len(steps))

	for _, step := range steps {
		if seen[step.SortOrder] {
			return fmt.Errorf("%w: %d", persistence.ErrDuplicateSortOrder, step.SortOrder)
		}

		seen[step.SortOrder] = true
	}

	return nil
}
