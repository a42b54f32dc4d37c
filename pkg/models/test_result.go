package models

import "time"

// TestStatus is the lifecycle state of a test run. PENDING is transient: the
// persisted record's observable states are RUNNING then a terminal state.
type TestStatus string

const (
	TestStatusPending TestStatus = "PENDING"
	TestStatusRunning TestStatus = "RUNNING"
	TestStatusSuccess TestStatus = "SUCCESS"
	TestStatusFailed  TestStatus = "FAILED"
)

// Terminal reports whether the status ends a run. A terminal record is
// immutable.
func (s TestStatus) Terminal() bool {
	return s == TestStatusSuccess || s == TestStatusFailed
}

// StepOutcome records how a single step fared during a run. JSON keys match
// the persisted output document, which the dashboard consumes directly.
type StepOutcome struct {
	StepID  string `json:"stepId"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TestOutput is the persisted output of a successful run.
type TestOutput struct {
	StepResults []StepOutcome  `json:"stepResults"`
	FinalOutput map[string]any `json:"finalOutput"`
}

// TestResult is the append-only audit record of one execution of a pattern
// against given input.
type TestResult struct {
	ID         string         `json:"id"`
	PatternID  string         `json:"pattern_id"`
	Status     TestStatus     `json:"status"`
	Input      map[string]any `json:"input"`
	Output     *TestOutput    `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TestResultUpdate carries the one-and-only terminal mutation of a test
// result.
type TestResultUpdate struct {
	Status     TestStatus
	Output     *TestOutput
	Error      string
	DurationMs int64
}
