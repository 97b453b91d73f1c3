package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskDraft_Validate(t *testing.T) {
	tests := []struct {
		name    string
		draft   TaskDraft
		want    Mode
		wantErr error
	}{
		{"defaults to supervised", TaskDraft{Title: "a"}, ModeSupervised, nil},
		{"autonomous", TaskDraft{Title: "a", Mode: "autonomous"}, ModeAutonomous, nil},
		{"empty title", TaskDraft{Title: "  "}, "", ErrEmptyTitle},
		{"bad mode", TaskDraft{Title: "a", Mode: "eager"}, "", ErrInvalidMode},
		{"blank subtask", TaskDraft{Title: "a", Subtasks: []string{"x", ""}}, "", ErrEmptyTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := tt.draft.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
		})
	}
}
