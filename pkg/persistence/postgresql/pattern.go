package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence"
)

// PatternRepository handles pattern-related database operations. Steps are
// stored in their own table but always saved through their pattern.
type PatternRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPatternRepository creates a new pattern repository.
func NewPatternRepository(db *sql.DB, logger *slog.Logger) *PatternRepository {
	return &PatternRepository{db: db, logger: logger}
}

var patternSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "LOWER(name)",
	"priority":   "priority",
}

// List returns paginated and filtered patterns.
func (r *PatternRepository) List(ctx context.Context, opts persistence.ListPatternsOptions) (*persistence.PatternListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	sortColumn, ok := patternSortColumns[opts.SortBy]
	if !ok {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	direction := "ASC"
	if opts.SortOrder == "desc" {
		direction = "DESC"
	}

	where := "WHERE deleted_at IS NULL"
	args := []any{}

	if opts.OwnerID != "" {
		args = append(args, opts.OwnerID)
		where += fmt.Sprintf(" AND owner = $%d", len(args))
	}

	if opts.CampaignID != "" {
		args = append(args, opts.CampaignID)
		where += fmt.Sprintf(" AND campaign_id = $%d", len(args))
	}

	if opts.ActiveOnly {
		where += " AND active = TRUE"
	}

	var totalCount int64

	countQuery := "SELECT COUNT(*) FROM patterns " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count patterns: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	query := fmt.Sprintf(`
		SELECT
			id
		  , name
		  , description
		  , active
		  , owner
		  , priority
		  , type
		  , campaign_id
		  , system_group_id
		  , schedule
		  , created_at
		  , updated_at
		  , deleted_at
		FROM patterns
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, where, sortColumn, direction, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	patterns := make([]*models.Pattern, 0)

	for rows.Next() {
		pattern, err := r.scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}

		patterns = append(patterns, pattern)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}

	for _, pattern := range patterns {
		if err := r.loadSteps(ctx, pattern); err != nil {
			return nil, err
		}
	}

	return &persistence.PatternListResult{
		Patterns:    patterns,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+len(patterns)) < totalCount,
	}, nil
}

// GetByID returns a pattern with all of its steps.
func (r *PatternRepository) GetByID(ctx context.Context, id string) (*models.Pattern, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , active
		  , owner
		  , priority
		  , type
		  , campaign_id
		  , system_group_id
		  , schedule
		  , created_at
		  , updated_at
		  , deleted_at
		FROM patterns
		WHERE id = $1 AND deleted_at IS NULL
	`

	pattern, err := r.scanPattern(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrPatternNotFound
		}

		return nil, fmt.Errorf("failed to scan pattern: %w", err)
	}

	if err := r.loadSteps(ctx, pattern); err != nil {
		return nil, err
	}

	return pattern, nil
}

// GetWithEnabledSteps returns the pattern with steps filtered to enabled and
// sorted ascending by sort position.
func (r *PatternRepository) GetWithEnabledSteps(ctx context.Context, id string) (*models.Pattern, error) {
	pattern, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pattern.Steps = pattern.EnabledSteps()

	return pattern, nil
}

// Save upserts a pattern and rewrites its step set in one transaction.
func (r *PatternRepository) Save(ctx context.Context, pattern *models.Pattern) error {
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

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	patternQuery := `
		INSERT INTO patterns (id, name, description, active, owner, priority, type,
			campaign_id, system_group_id, schedule, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			active = EXCLUDED.active,
			owner = EXCLUDED.owner,
			priority = EXCLUDED.priority,
			type = EXCLUDED.type,
			campaign_id = EXCLUDED.campaign_id,
			system_group_id = EXCLUDED.system_group_id,
			schedule = EXCLUDED.schedule,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = tx.ExecContext(ctx, patternQuery,
		pattern.ID,
		pattern.Name,
		pattern.Description,
		pattern.Active,
		pattern.Owner,
		pattern.Priority,
		pattern.Type,
		pattern.CampaignID,
		pattern.SystemGroupID,
		pattern.Schedule,
		pattern.CreatedAt,
		pattern.UpdatedAt,
		pattern.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save pattern base: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM pattern_steps WHERE pattern_id = $1", pattern.ID)
	if err != nil {
		return fmt.Errorf("failed to delete existing steps: %w", err)
	}

	if err = r.saveSteps(ctx, tx, pattern); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete soft deletes a pattern by setting the deleted_at timestamp.
func (r *PatternRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE patterns SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrPatternNotFound
	}

	return nil
}

// SaveStep inserts or replaces a single step of a pattern.
func (r *PatternRepository) SaveStep(ctx context.Context, patternID string, step *models.Step) error {
	pattern, err := r.GetByID(ctx, patternID)
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

	return r.Save(ctx, pattern)
}

// DeleteStep removes a single step from a pattern.
func (r *PatternRepository) DeleteStep(ctx context.Context, patternID, stepID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM pattern_steps WHERE pattern_id = $1 AND id = $2", patternID, stepID)
	if err != nil {
		return fmt.Errorf("failed to delete step: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrStepNotFound
	}

	return nil
}

// ReorderSteps reassigns sort positions 1..n following the supplied order.
// Every supplied ID must belong to the pattern.
func (r *PatternRepository) ReorderSteps(ctx context.Context, patternID string, stepIDs []string) error {
	pattern, err := r.GetByID(ctx, patternID)
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

	return r.Save(ctx, pattern)
}

func (r *PatternRepository) saveSteps(ctx context.Context, tx *sql.Tx, pattern *models.Pattern) error {
	for _, step := range pattern.Steps {
		configuration := step.Configuration
		if len(configuration) == 0 {
			configuration = json.RawMessage("{}")
		}

		query := `
			INSERT INTO pattern_steps (id, pattern_id, name, description, action, configuration, sort_order, enabled)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`

		_, err := tx.ExecContext(ctx, query,
			step.ID,
			pattern.ID,
			step.Name,
			step.Description,
			step.Action,
			[]byte(configuration),
			step.SortOrder,
			step.Enabled,
		)
		if err != nil {
			return fmt.Errorf("failed to save step: %w", err)
		}
	}

	return nil
}

func (r *PatternRepository) loadSteps(ctx context.Context, pattern *models.Pattern) error {
	query := `
		SELECT
			id
		  , pattern_id
		  , name
		  , description
		  , action
		  , configuration
		  , sort_order
		  , enabled
		FROM pattern_steps
		WHERE pattern_id = $1
		ORDER BY sort_order
	`

	rows, err := r.db.QueryContext(ctx, query, pattern.ID)
	if err != nil {
		return fmt.Errorf("failed to query pattern steps: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	steps := make([]*models.Step, 0)

	for rows.Next() {
		var (
			step       models.Step
			configJSON []byte
		)

		err := rows.Scan(
			&step.ID,
			&step.PatternID,
			&step.Name,
			&step.Description,
			&step.Action,
			&configJSON,
			&step.SortOrder,
			&step.Enabled,
		)
		if err != nil {
			return fmt.Errorf("failed to scan step: %w", err)
		}

		step.Configuration = json.RawMessage(configJSON)

		steps = append(steps, &step)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating steps: %w", err)
	}

	pattern.Steps = steps

	return nil
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

func (r *PatternRepository) scanPattern(scanner interface {
	Scan(dest ...any) error
}) (*models.Pattern, error) {
	var pattern models.Pattern

	err := scanner.Scan(
		&pattern.ID,
		&pattern.Name,
		&pattern.Description,
		&pattern.Active,
		&pattern.Owner,
		&pattern.Priority,
		&pattern.Type,
		&pattern.CampaignID,
		&pattern.SystemGroupID,
		&pattern.Schedule,
		&pattern.CreatedAt,
		&pattern.UpdatedAt,
		&pattern.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	return &pattern, nil
}
