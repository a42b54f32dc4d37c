package models

import "fmt"

// RunContext is the accumulating context passed through a test run. It is
// seeded with the caller's input and enriched with each successful step's
// result, keyed by the step's sort position.
type RunContext struct {
	Input map[string]any
	Steps map[int]any
}

// NewRunContext seeds a context with the caller-supplied input. A nil input
// becomes an empty object.
func NewRunContext(input map[string]any) RunContext {
	if input == nil {
		input = map[string]any{}
	}

	return RunContext{
		Input: input,
		Steps: make(map[int]any),
	}
}

// Record stores a successful step's result under its sort position. Later
// steps see all earlier successful outputs.
func (c RunContext) Record(sortOrder int, result any) {
	c.Steps[sortOrder] = result
}

// StepResult returns the recorded result for a sort position.
func (c RunContext) StepResult(sortOrder int) (any, bool) {
	result, ok := c.Steps[sortOrder]

	return result, ok
}

// AsMap renders the open form of the context: {"input": ..., "step_<N>": ...}.
// This is the shape persisted as a test result's finalOutput.
func (c RunContext) AsMap() map[string]any {
	out := make(map[string]any, len(c.Steps)+1)
	out["input"] = c.Input

	for sortOrder, result := range c.Steps {
		out[fmt.Sprintf("step_%d", sortOrder)] = result
	}

	return out
}
