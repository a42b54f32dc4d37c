package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/caravel-hq/caravel/pkg/models"
	"github.com/caravel-hq/caravel/pkg/persistence"
	"github.com/google/uuid"
)

// TestResultRepository handles test result file operations. Results are
// grouped per pattern under results/<patternID>/.
type TestResultRepository struct {
	root     string
	patterns *PatternRepository
}

// NewTestResultRepository creates a new test result repository.
func NewTestResultRepository(root string, patterns *PatternRepository) *TestResultRepository {
	return &TestResultRepository{root: root, patterns: patterns}
}

func (tr *TestResultRepository) dir(patternID string) string {
	return path.Join(tr.root, "results", patternID)
}

func (tr *TestResultRepository) filePath(patternID, id string) string {
	return path.Join(tr.dir(patternID), id+".json")
}

// Create persists a new record already in RUNNING state. The caller-supplied
// input is recorded verbatim; nil becomes an empty object.
func (tr *TestResultRepository) Create(ctx context.Context, patternID string, input map[string]any) (*models.TestResult, error) {
	if _, err := tr.patterns.GetByID(ctx, patternID); err != nil {
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

	if err := tr.write(result); err != nil {
		return nil, err
	}

	return result, nil
}

// Update applies the terminal mutation. Records already terminal are
// immutable.
func (tr *TestResultRepository) Update(ctx context.Context, id string, update models.TestResultUpdate) (*models.TestResult, error) {
	result, err := tr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if result.Status.Terminal() {
		return nil, persistence.ErrTestResultTerminal
	}

	result.Status = update.Status
	result.Output = update.Output
	result.Error = update.Error
	result.DurationMs = update.DurationMs

	if err := tr.write(result); err != nil {
		return nil, err
	}

	return result, nil
}

func (tr *TestResultRepository) GetByID(_ context.Context, id string) (*models.TestResult, error) {
	patternDirs, err := fs.Glob(os.DirFS(path.Join(tr.root, "results")), "*")
	if err != nil {
		return nil, persistence.ErrTestResultNotFound
	}

	for _, patternID := range patternDirs {
		data, err := os.ReadFile(tr.filePath(patternID, id))
		if err != nil {
			continue
		}

		var result models.TestResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to decode test result %s: %w", id, err)
		}

		return &result, nil
	}

	return nil, persistence.ErrTestResultNotFound
}

// ListByPattern returns results newest first, capped at limit.
func (tr *TestResultRepository) ListByPattern(_ context.Context, patternID string, limit int) ([]*models.TestResult, error) {
	jsonFiles, err := fs.Glob(os.DirFS(tr.dir(patternID)), "*.json")
	if err != nil || len(jsonFiles) == 0 {
		return []*models.TestResult{}, nil
	}

	results := make([]*models.TestResult, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		data, err := os.ReadFile(path.Join(tr.dir(patternID), file))
		if err != nil {
			return nil, fmt.Errorf("failed to read test result file: %w", err)
		}

		var result models.TestResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to decode test result from %s: %w", file, err)
		}

		results = append(results, &result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			// UUIDv7 IDs sort chronologically, which breaks timestamp ties.
			return results[i].ID > results[j].ID
		}

		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func (tr *TestResultRepository) write(result *models.TestResult) error {
	if err := os.MkdirAll(tr.dir(result.PatternID), 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode test result: %w", err)
	}

	if err := os.WriteFile(tr.filePath(result.PatternID, result.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write test result file: %w", err)
	}

	return nil
}
