package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ShowDiffInput contains the parameters for showing a task's changes.
type ShowDiffInput struct {
	TaskID int64
}

// ShowDiffOutput contains the diff statistics of a task.
type ShowDiffOutput struct {
	Stats      domain.DiffStats
	Workspace  string
	BaseCommit string
	Final      bool // Captured at teardown rather than computed now
}

// ShowDiff is the use case for displaying how much a task has changed.
// Active sessions are measured live; closed ones report their captured stats.
type ShowDiff struct {
	store  domain.Store
	differ domain.DiffStatter
}

// NewShowDiff creates a new ShowDiff use case.
func NewShowDiff(store domain.Store, differ domain.DiffStatter) *ShowDiff {
	return &ShowDiff{
		store:  store,
		differ: differ,
	}
}

// Execute returns the diff statistics between the session's base commit and
// its workspace HEAD.
func (uc *ShowDiff) Execute(ctx context.Context, in ShowDiffInput) (*ShowDiffOutput, error) {
	task, err := requireTask(ctx, uc.store, in.TaskID)
	if err != nil {
		return nil, err
	}
	if task.SessionID == nil {
		return nil, fmt.Errorf("%w: task %d was never launched", domain.ErrSessionNotFound, task.ID)
	}
	session, err := uc.store.GetSession(ctx, *task.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, *task.SessionID)
	}

	out := &ShowDiffOutput{
		Workspace:  session.Workspace,
		BaseCommit: session.BaseCommit,
	}
	if !session.IsActive() {
		if session.Diff != nil {
			out.Stats = *session.Diff
		}
		out.Final = true
		return out, nil
	}

	stats, err := uc.differ.Stats(session.Workspace, session.BaseCommit)
	if err != nil {
		return nil, fmt.Errorf("compute diff: %w", err)
	}
	out.Stats = stats
	return out, nil
}
