// Package events defines event types for pattern test-run lifecycle
// notifications.
package events

import (
	"time"

	"github.com/caravel-hq/caravel/pkg/models"
)

type EventType string

// Topic carrying all caravel events.
const Topic = "caravel.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	PatternTestStartedEvent  EventType = "pattern.test.started"
	PatternTestFinishedEvent EventType = "pattern.test.finished"
	PatternTestFailedEvent   EventType = "pattern.test.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	PatternID string         `json:"pattern_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type PatternTestStarted struct {
	BaseEvent

	TestResultID string         `json:"test_result_id"`
	Input        map[string]any `json:"input,omitempty"`
}

func (e PatternTestStarted) GetType() EventType {
	return PatternTestStartedEvent
}

type PatternTestFinished struct {
	BaseEvent

	TestResultID string            `json:"test_result_id"`
	Status       models.TestStatus `json:"status"`
	DurationMs   int64             `json:"duration_ms"`
	StepCount    int               `json:"step_count"`
}

func (e PatternTestFinished) GetType() EventType {
	return PatternTestFinishedEvent
}

type PatternTestFailed struct {
	BaseEvent

	TestResultID string `json:"test_result_id"`
	Error        string `json:"error"`
	DurationMs   int64  `json:"duration_ms"`
	FailedStep   string `json:"failed_step,omitempty"`
}

func (e PatternTestFailed) GetType() EventType {
	return PatternTestFailedEvent
}
