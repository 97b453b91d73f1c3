package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// DeleteTaskInput contains the parameters for deleting a task.
type DeleteTaskInput struct {
	TaskID int64
}

// DeleteTask is the use case for deleting a task and its subtasks.
// Tasks bound to an active session are refused.
type DeleteTask struct {
	tasks  domain.TaskRepository
	logger domain.Logger
}

// NewDeleteTask creates a new DeleteTask use case.
func NewDeleteTask(tasks domain.TaskRepository, logger domain.Logger) *DeleteTask {
	return &DeleteTask{
		tasks:  tasks,
		logger: logger,
	}
}

// Execute deletes the task.
func (uc *DeleteTask) Execute(ctx context.Context, in DeleteTaskInput) error {
	task, err := requireTask(ctx, uc.tasks, in.TaskID)
	if err != nil {
		return err
	}
	if err := uc.tasks.DeleteTask(ctx, task.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	uc.logger.Info(task.ID, "task", fmt.Sprintf("deleted: %q", task.Title))
	return nil
}
