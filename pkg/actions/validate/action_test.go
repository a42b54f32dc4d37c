package validate

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-hq/caravel/pkg/models"
)

func TestActionFactory_Create(t *testing.T) {
	factory := NewActionFactory()

	action, err := factory.Create(map[string]any{"field": "email", "required": true})
	require.NoError(t, err)

	validateAction, ok := action.(*Action)
	require.True(t, ok)
	assert.Equal(t, "email", validateAction.Field)
	assert.True(t, validateAction.Required)
}

func TestAction_Execute_RequiredField(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		wantErr bool
	}{
		{
			name:    "field present",
			input:   map[string]any{"email": "ann@example.com"},
			wantErr: false,
		},
		{
			name:    "field missing",
			input:   map[string]any{"name": "ann"},
			wantErr: true,
		},
		{
			name:    "field null",
			input:   map[string]any{"email": nil},
			wantErr: true,
		},
		{
			name:    "field empty string",
			input:   map[string]any{"email": ""},
			wantErr: true,
		},
		{
			name:    "field false",
			input:   map[string]any{"email": false},
			wantErr: true,
		},
		{
			name:    "field zero",
			input:   map[string]any{"email": float64(0)},
			wantErr: true,
		},
		{
			name:    "field non-zero number",
			input:   map[string]any{"email": float64(42)},
			wantErr: false,
		},
		{
			name:    "field object",
			input:   map[string]any{"email": map[string]any{}},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := &Action{Field: "email", Required: true}

			result, err := action.Execute(context.Background(), models.NewRunContext(tt.input), slog.Default())

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, `Field "email" is required`, err.Error())
				assert.Nil(t, result)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, map[string]any{"validated": true, "field": "email"}, result)
		})
	}
}

func TestAction_Execute_OptionalFieldNeverFails(t *testing.T) {
	action := &Action{Field: "email", Required: false}

	result, err := action.Execute(context.Background(), models.NewRunContext(nil), slog.Default())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"validated": true, "field": "email"}, result)
}
