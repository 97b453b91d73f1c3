package github

import (
	"context"
	"errors"
	"testing"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prURL = "https://github.com/acme/app/pull/7"

func TestChecker_IsMerged(t *testing.T) {
	tests := []struct {
		output string
		want   bool
	}{
		{`{"state":"MERGED"}`, true},
		{`{"state":"OPEN"}`, false},
		{`{"state":"CLOSED"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			exec := &testutil.MockExecutor{Outputs: map[string][]byte{
				"gh pr view " + prURL + " --json state": []byte(tt.output),
			}}
			merged, err := NewChecker(exec).IsMerged(context.Background(), prURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, merged)

			require.Len(t, exec.Commands, 1)
			assert.Equal(t, "gh", exec.Commands[0].Program)
		})
	}
}

func TestChecker_State_CommandFails(t *testing.T) {
	exec := &testutil.MockExecutor{Err: errors.New("gh: not logged in")}
	_, err := NewChecker(exec).State(context.Background(), prURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), prURL)
}

func TestChecker_State_BadOutput(t *testing.T) {
	exec := &testutil.MockExecutor{Outputs: map[string][]byte{
		"gh pr view " + prURL + " --json state": []byte("not json"),
	}}
	state, err := NewChecker(exec).State(context.Background(), prURL)
	assert.Error(t, err)
	assert.Equal(t, domain.PRState(""), state)
}
