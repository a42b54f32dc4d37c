package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-hq/caravel/pkg/channels/gochannel"
	"github.com/caravel-hq/caravel/pkg/eventbus"
	"github.com/caravel-hq/caravel/pkg/events"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		if err := bus.Close(); err != nil {
			t.Logf("Failed to close event bus: %v", err)
		}
	})

	return bus
}

func TestWatermillEventBus_PublishAndSubscribe(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.PatternTestFinished, 1)

	err := bus.Handle(events.PatternTestFinishedEvent, func(_ context.Context, event any) error {
		finished, ok := event.(*events.PatternTestFinished)
		require.True(t, ok)

		received <- finished

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	sent := events.PatternTestFinished{
		BaseEvent: events.BaseEvent{
			ID:        "evt-1",
			Type:      events.PatternTestFinishedEvent,
			Timestamp: time.Now().UTC(),
			PatternID: "pattern-1",
		},
		TestResultID: "result-1",
		Status:       "SUCCESS",
		DurationMs:   120,
		StepCount:    2,
	}

	require.NoError(t, bus.Publish(ctx, "pattern-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, "result-1", got.TestResultID)
		assert.Equal(t, 2, got.StepCount)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
