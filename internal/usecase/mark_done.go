package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// MarkDoneInput contains the parameters for confirming a task.
type MarkDoneInput struct {
	TaskID int64
}

// MarkDoneOutput contains the result of confirming a task.
type MarkDoneOutput struct {
	Teardown  *TeardownSessionOutput // nil when no session was torn down
	SessionID string
}

// MarkDone is the use case for moving a reviewed task to done, either by the
// user or because its pull request was merged. The session is torn down only
// while it is still bound to the task; an autonomous session may already
// serve the next one.
type MarkDone struct {
	store    domain.Store
	teardown *TeardownSession
	logger   domain.Logger
}

// NewMarkDone creates a new MarkDone use case.
func NewMarkDone(store domain.Store, teardown *TeardownSession, logger domain.Logger) *MarkDone {
	return &MarkDone{
		store:    store,
		teardown: teardown,
		logger:   logger,
	}
}

// Execute confirms the task. A bound session is torn down before the task
// moves to done, so a failed teardown leaves the task in review and a later
// call retries it.
func (uc *MarkDone) Execute(ctx context.Context, in MarkDoneInput) (*MarkDoneOutput, error) {
	task, err := requireTask(ctx, uc.store, in.TaskID)
	if err != nil {
		return nil, err
	}
	if task.Status != domain.StatusInReview {
		return nil, fmt.Errorf("mark task done: %w: task %d is %s", domain.ErrInvalidTransition, task.ID, task.Status)
	}

	out := &MarkDoneOutput{}
	session, err := uc.boundSession(ctx, task)
	if err != nil {
		return nil, err
	}
	if session != nil {
		out.SessionID = session.ID
		out.Teardown, err = uc.teardown.Execute(ctx, TeardownSessionInput{SessionID: session.ID})
		if err != nil {
			return out, fmt.Errorf("tear down session: %w", err)
		}
	}

	if err := uc.store.TransitionTask(ctx, task.ID, domain.StatusInReview, domain.StatusDone); err != nil {
		return out, fmt.Errorf("mark task done: %w", err)
	}
	uc.logger.Info(task.ID, "task", "done")
	return out, nil
}

// boundSession returns the task's session when it is active and still
// bound to the task, or nil.
func (uc *MarkDone) boundSession(ctx context.Context, task *domain.Task) (*domain.Session, error) {
	if task.SessionID == nil {
		return nil, nil
	}
	session, err := uc.store.GetSession(ctx, *task.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil || !session.IsActive() || !session.IsBoundTo(task.ID) {
		return nil, nil
	}
	return session, nil
}
