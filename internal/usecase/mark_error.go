package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// MarkErrorInput contains the parameters for failing a task.
type MarkErrorInput struct {
	Message string
	TaskID  int64
}

// MarkError is the use case for the explicit in_progress → error transition.
// Nothing triggers it automatically.
type MarkError struct {
	store  domain.Store
	clock  domain.Clock
	logger domain.Logger
}

// NewMarkError creates a new MarkError use case.
func NewMarkError(store domain.Store, clock domain.Clock, logger domain.Logger) *MarkError {
	return &MarkError{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Execute fails the task and flags its session.
func (uc *MarkError) Execute(ctx context.Context, in MarkErrorInput) error {
	task, err := requireTask(ctx, uc.store, in.TaskID)
	if err != nil {
		return err
	}
	if err := uc.store.TransitionTask(ctx, task.ID, domain.StatusInProgress, domain.StatusError); err != nil {
		return fmt.Errorf("mark task error: %w", err)
	}

	session, err := uc.store.ActiveSessionForTask(ctx, task.ID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session != nil {
		if err := uc.store.UpdateAgentStatus(ctx, session.ID, domain.AgentError, in.Message, uc.clock.Now()); err != nil {
			return fmt.Errorf("update agent status: %w", err)
		}
	}
	uc.logger.Warn(task.ID, "task", "marked error: "+in.Message)
	return nil
}
