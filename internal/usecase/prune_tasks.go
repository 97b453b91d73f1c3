package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// PruneTasksInput contains the parameters for pruning tasks.
type PruneTasksInput struct {
	Project string // Limit to one project (empty for all)
	DryRun  bool   // Only list what would be pruned
}

// PruneTasksOutput contains the pruned tasks.
type PruneTasksOutput struct {
	Deleted []*domain.Task // Tasks that were (or would be) deleted
	Skipped []*domain.Task // Done tasks still bound to an active session
}

// PruneTasks is the use case for deleting finished tasks.
type PruneTasks struct {
	store  domain.Store
	logger domain.Logger
}

// NewPruneTasks creates a new PruneTasks use case.
func NewPruneTasks(store domain.Store, logger domain.Logger) *PruneTasks {
	return &PruneTasks{
		store:  store,
		logger: logger,
	}
}

// Execute deletes every done task. Tasks whose session is still active are
// skipped and reported.
func (uc *PruneTasks) Execute(ctx context.Context, in PruneTasksInput) (*PruneTasksOutput, error) {
	status := domain.StatusDone
	filter := domain.TaskFilter{Status: &status}
	if in.Project != "" {
		project, err := requireProject(ctx, uc.store, in.Project)
		if err != nil {
			return nil, err
		}
		filter.ProjectID = &project.ID
	}

	tasks, err := uc.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	out := &PruneTasksOutput{
		Deleted: []*domain.Task{},
		Skipped: []*domain.Task{},
	}
	for _, task := range tasks {
		if in.DryRun {
			out.Deleted = append(out.Deleted, task)
			continue
		}
		err := uc.store.DeleteTask(ctx, task.ID)
		switch {
		case errors.Is(err, domain.ErrTaskBusy):
			out.Skipped = append(out.Skipped, task)
		case err != nil:
			return nil, fmt.Errorf("delete task #%d: %w", task.ID, err)
		default:
			out.Deleted = append(out.Deleted, task)
			uc.logger.Info(task.ID, "task", fmt.Sprintf("pruned: %q", task.Title))
		}
	}
	return out, nil
}
