package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/runoshun/agentdeck/internal/domain"
)

// TeardownSessionInput contains the parameters for tearing down a session.
type TeardownSessionInput struct {
	SessionID string
}

// TeardownSessionOutput contains the result of tearing down a session.
type TeardownSessionOutput struct {
	Diff *domain.DiffStats // nil when statistics could not be captured
}

// TeardownSession is the use case for closing a session: it captures diff
// statistics, terminates the pane and force-removes the workspace.
// Uncommitted changes in the workspace are lost.
// Fields are ordered to minimize memory padding.
type TeardownSession struct {
	store      domain.Store
	terminal   domain.Terminal
	workspaces domain.WorkspaceManager
	differ     domain.DiffStatter
	clock      domain.Clock
	logger     domain.Logger
	home       string
}

// NewTeardownSession creates a new TeardownSession use case.
func NewTeardownSession(
	store domain.Store,
	terminal domain.Terminal,
	workspaces domain.WorkspaceManager,
	differ domain.DiffStatter,
	clock domain.Clock,
	logger domain.Logger,
	home string,
) *TeardownSession {
	return &TeardownSession{
		store:      store,
		terminal:   terminal,
		workspaces: workspaces,
		differ:     differ,
		clock:      clock,
		logger:     logger,
		home:       home,
	}
}

// Execute tears down the session.
func (uc *TeardownSession) Execute(ctx context.Context, in TeardownSessionInput) (*TeardownSessionOutput, error) {
	session, err := requireActiveSession(ctx, uc.store, in.SessionID)
	if err != nil {
		return nil, err
	}
	var taskID int64
	if session.TaskID != nil {
		taskID = *session.TaskID
	}

	project, err := uc.store.GetProject(ctx, session.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrProjectNotFound, session.ProjectID)
	}

	var diff *domain.DiffStats
	stats, err := uc.differ.Stats(session.Workspace, session.BaseCommit)
	if err != nil {
		uc.logger.Warn(taskID, "teardown", fmt.Sprintf("capture diff stats: %v", err))
	} else {
		diff = &stats
	}

	if err := uc.terminal.Close(session.Pane); err != nil {
		return nil, fmt.Errorf("close pane: %w", err)
	}
	if err := uc.workspaces.ForceRemove(project.RepoPath, session.Workspace); err != nil {
		return nil, fmt.Errorf("remove workspace: %w", err)
	}
	if err := uc.store.CloseSession(ctx, session.ID, diff, uc.clock.Now()); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}

	script := domain.ScriptPath(uc.home, session.ID)
	if err := os.Remove(script); err != nil && !errors.Is(err, os.ErrNotExist) {
		uc.logger.Warn(taskID, "teardown", fmt.Sprintf("remove script: %v", err))
	}

	uc.logger.Info(taskID, "teardown", "closed session "+session.ID)
	return &TeardownSessionOutput{Diff: diff}, nil
}
