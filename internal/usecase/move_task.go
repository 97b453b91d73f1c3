package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// MoveTaskInput contains the parameters for reordering a task.
type MoveTaskInput struct {
	TaskID int64
	Up     bool // Toward the front of the queue
}

// MoveTask is the use case for swapping a task with its queue neighbour.
type MoveTask struct {
	tasks domain.TaskRepository
}

// NewMoveTask creates a new MoveTask use case.
func NewMoveTask(tasks domain.TaskRepository) *MoveTask {
	return &MoveTask{tasks: tasks}
}

// Execute swaps sort_order with the adjacent task of the same project.
func (uc *MoveTask) Execute(ctx context.Context, in MoveTaskInput) error {
	if _, err := requireTask(ctx, uc.tasks, in.TaskID); err != nil {
		return err
	}
	if err := uc.tasks.SwapTaskOrder(ctx, in.TaskID, in.Up); err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	return nil
}
