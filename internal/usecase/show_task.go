package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ShowTaskInput contains the parameters for showing a task.
type ShowTaskInput struct {
	TaskID int64
}

// ShowTaskOutput contains a task with its steps and its session.
type ShowTaskOutput struct {
	Task     *domain.Task
	Project  *domain.Project
	Session  *domain.Session // Current or last session, nil if never launched
	Subtasks []*domain.Subtask
}

// ShowTask is the use case for displaying task details.
type ShowTask struct {
	store domain.Store
}

// NewShowTask creates a new ShowTask use case.
func NewShowTask(store domain.Store) *ShowTask {
	return &ShowTask{store: store}
}

// Execute returns the task details.
func (uc *ShowTask) Execute(ctx context.Context, in ShowTaskInput) (*ShowTaskOutput, error) {
	task, err := requireTask(ctx, uc.store, in.TaskID)
	if err != nil {
		return nil, err
	}

	project, err := uc.store.GetProject(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	subtasks, err := uc.store.ListSubtasks(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}

	var session *domain.Session
	if task.SessionID != nil {
		session, err = uc.store.GetSession(ctx, *task.SessionID)
		if err != nil {
			return nil, fmt.Errorf("get session: %w", err)
		}
	}

	return &ShowTaskOutput{
		Task:     task,
		Project:  project,
		Session:  session,
		Subtasks: subtasks,
	}, nil
}
