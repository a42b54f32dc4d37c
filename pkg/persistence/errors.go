// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrCampaignNotFound indicates a campaign was not found by the given identifier.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrPatternNotFound indicates a pattern was not found by the given identifier.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrStepNotFound indicates a step was not found within its pattern.
	ErrStepNotFound = errors.New("step not found")

	// ErrTestResultNotFound indicates a test result was not found by the given identifier.
	ErrTestResultNotFound = errors.New("test result not found")

	// ErrTestResultTerminal indicates an update was attempted on a record
	// that already reached SUCCESS or FAILED.
	ErrTestResultTerminal = errors.New("test result already terminal")

	// ErrDuplicateSortOrder indicates two steps of one pattern share a sort position.
	ErrDuplicateSortOrder = errors.New("duplicate step sort position")
)

// PatternError wraps pattern-related errors with additional context.
type PatternError struct {
	Op        string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	PatternID string
	Err       error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%s operation failed for pattern %s: %v", e.Op, e.PatternID, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

func (e *PatternError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewPatternError creates a new pattern error with context.
func NewPatternError(op, patternID string, err error) *PatternError {
	return &PatternError{Op: op, PatternID: patternID, Err: err}
}

// StepError wraps step-related errors with additional context.
type StepError struct {
	Op        string
	PatternID string
	StepID    string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s operation failed for step %s in pattern %s: %v", e.Op, e.StepID, e.PatternID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsCampaignNotFound checks if an error indicates a campaign was not found.
func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

// IsPatternNotFound checks if an error indicates a pattern was not found.
func IsPatternNotFound(err error) bool {
	return errors.Is(err, ErrPatternNotFound)
}

// IsStepNotFound checks if an error indicates a step was not found.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsTestResultNotFound checks if an error indicates a test result was not found.
func IsTestResultNotFound(err error) bool {
	return errors.Is(err, ErrTestResultNotFound)
}
