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

// TestResultRepository handles test result database operations.
type TestResultRepository struct {
	db       *sql.DB
	logger   *slog.Logger
	patterns *PatternRepository
}

// NewTestResultRepository creates a new test result repository.
func NewTestResultRepository(db *sql.DB, logger *slog.Logger, patterns *PatternRepository) *TestResultRepository {
	return &TestResultRepository{db: db, logger: logger, patterns: patterns}
}

// Create persists a new record already in RUNNING state. The caller-supplied
// input is recorded verbatim; nil becomes an empty object.
func (r *TestResultRepository) Create(ctx context.Context, patternID string, input map[string]any) (*models.TestResult, error) {
	if _, err := r.patterns.GetByID(ctx, patternID); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate test result ID: %w", err)
	}

	if input == nil {
		input = map[string]any{}
	}

	result := &models.TestResult{
		ID:        id.String(),
		PatternID: patternID,
		Status:    models.TestStatusRunning,
		Input:     input,
		CreatedAt: time.Now().UTC(),
	}

	inputJSON, err := json.Marshal(result.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	query := `
		INSERT INTO test_results (id, pattern_id, status, input, output, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, NULL, '', 0, $5)
	`

	_, err = r.db.ExecContext(ctx, query,
		result.ID,
		result.PatternID,
		result.Status,
		inputJSON,
		result.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create test result: %w", err)
	}

	return result, nil
}

// Update applies the terminal mutation. Records already terminal are
// immutable, enforced by the status guard in the UPDATE itself.
func (r *TestResultRepository) Update(ctx context.Context, id string, update models.TestResultUpdate) (*models.TestResult, error) {
	var outputJSON any

	if update.Output != nil {
		data, err := json.Marshal(update.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal output: %w", err)
		}

		outputJSON = data
	}

	query := `
		UPDATE test_results
		SET status = $2, output = $3, error = $4, duration_ms = $5
		WHERE id = $1 AND status = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		update.Status,
		outputJSON,
		update.Error,
		update.DurationMs,
		models.TestStatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update test result: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if existing.Status.Terminal() {
			return nil, persistence.ErrTestResultTerminal
		}

		return nil, persistence.ErrTestResultNotFound
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a test result by its identifier.
func (r *TestResultRepository) GetByID(ctx context.Context, id string) (*models.TestResult, error) {
	query := `
		SELECT
			id
		  , pattern_id
		  , status
		  , input
		  , output
		  , error
		  , duration_ms
		  , created_at
		FROM test_results
		WHERE id = $1
	`

	testResult, err := r.scanTestResult(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrTestResultNotFound
		}

		return nil, fmt.Errorf("failed to scan test result: %w", err)
	}

	return testResult, nil
}

// ListByPattern returns results newest first, capped at limit.
func (r *TestResultRepository) ListByPattern(ctx context.Context, patternID string, limit int) ([]*models.TestResult, error) {
	query := `
		SELECT
			id
		  , pattern_id
		  , status
		  , input
		  , output
		  , error
		  , duration_ms
		  , created_at
		FROM test_results
		WHERE pattern_id = $1
		ORDER BY created_at DESC, id DESC
	`

	args := []any{patternID}

	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query test results: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	results := make([]*models.TestResult, 0)

	for rows.Next() {
		testResult, err := r.scanTestResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test result: %w", err)
		}

		results = append(results, testResult)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating test results: %w", err)
	}

	return results, nil
}

func (r *TestResultRepository) scanTestResult(scanner interface {
	Scan(dest ...any) error
}) (*models.TestResult, error) {
	var (
		testResult            models.TestResult
		inputJSON, outputJSON []byte
	)

	err := scanner.Scan(
		&testResult.ID,
		&testResult.PatternID,
		&testResult.Status,
		&inputJSON,
		&outputJSON,
		&testResult.Error,
		&testResult.DurationMs,
		&testResult.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if inputJSON != nil {
		if err := json.Unmarshal(inputJSON, &testResult.Input); err != nil {
			return nil, fmt.Errorf("failed to unmarshal input: %w", err)
		}
	}

	if outputJSON != nil {
		var output models.TestOutput
		if err := json.Unmarshal(outputJSON, &output); err != nil {
			return nil, fmt.Errorf("failed to unmarshal output: %w", err)
		}

		testResult.Output = &output
	}

	return &testResult, nil
}
