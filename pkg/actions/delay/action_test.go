package delay

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-hq/caravel/pkg/models"
)

func TestActionFactory_Create(t *testing.T) {
	factory := NewActionFactory()

	tests := []struct {
		name     string
		config   map[string]any
		expected int64
	}{
		{
			name:     "empty config uses default",
			config:   map[string]any{},
			expected: 1000,
		},
		{
			name:     "json number",
			config:   map[string]any{"delayMs": float64(250)},
			expected: 250,
		},
		{
			name:     "int value",
			config:   map[string]any{"delayMs": 250},
			expected: 250,
		},
		{
			name:     "over the cap is kept as requested",
			config:   map[string]any{"delayMs": float64(10000)},
			expected: 10000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := factory.Create(tt.config)
			require.NoError(t, err)

			delayAction, ok := action.(*Action)
			require.True(t, ok)
			assert.Equal(t, tt.expected, delayAction.DelayMs)
		})
	}
}

func TestAction_Execute_ClampsSleepButReportsRequest(t *testing.T) {
	var slept time.Duration

	action := &Action{
		DelayMs: 10000,
		sleep:   func(d time.Duration) { slept = d },
	}

	result, err := action.Execute(context.Background(), models.NewRunContext(nil), slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, slept)
	assert.Equal(t, map[string]any{"delayed": true, "ms": int64(10000)}, result)
}

func TestAction_Execute_UnderCapSleepsAsRequested(t *testing.T) {
	var slept time.Duration

	action := &Action{
		DelayMs: 40,
		sleep:   func(d time.Duration) { slept = d },
	}

	result, err := action.Execute(context.Background(), models.NewRunContext(nil), slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 40*time.Millisecond, slept)
	assert.Equal(t, map[string]any{"delayed": true, "ms": int64(40)}, result)
}
